package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/John-Robertt/dashpanel/internal/model"
)

func setAttachmentHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Disposition", contentDispositionAttachment(filename))
}

// panelFileName names a downloaded panel page after the panel, falling back
// to its monogram.
func panelFileName(p *model.Panel) string {
	base := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '\r', '\n', '\x00', '"':
			return '_'
		}
		return r
	}, strings.TrimSpace(p.Name))
	if base == "" {
		base = fmt.Sprintf("W%d", p.ID)
	}
	if len(base) > 200 {
		base = strings.ToValidUTF8(base[:200], "")
	}
	return base + ".html"
}

func contentDispositionAttachment(filename string) string {
	// RFC 6266 + RFC 5987.
	escaped := strings.ReplaceAll(filename, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", escaped, pctEncode(filename))
}

func pctEncode(s string) string {
	// QueryEscape uses '+' for spaces; %20 is what filename* expects.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
