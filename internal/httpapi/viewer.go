package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/John-Robertt/dashpanel/internal/failure"
	"github.com/John-Robertt/dashpanel/internal/model"
)

// Identity headers set by the trusted proxy in front of the service.
const (
	HeaderViewer = "X-Dashpanel-Viewer"
	HeaderAdmin  = "X-Dashpanel-Admin"
)

// viewerFromRequest reads the viewer identity. Malformed headers come from
// a misconfigured proxy or a hand-made request, so they are reported on
// the error page without being logged.
func viewerFromRequest(r *http.Request) (model.Viewer, error) {
	var v model.Viewer
	if phid := strings.TrimSpace(r.Header.Get(HeaderViewer)); phid != "" {
		if !model.ValidPHID(phid) {
			return model.Viewer{}, failure.NewSilentMalformedRequest("Invalid Viewer",
				fmt.Sprintf("The %s header is not a valid PHID.", HeaderViewer))
		}
		v.PHID = phid
	}
	if raw := strings.TrimSpace(r.Header.Get(HeaderAdmin)); raw != "" {
		admin, err := strconv.ParseBool(raw)
		if err != nil {
			return model.Viewer{}, failure.NewSilentMalformedRequest("Invalid Viewer",
				fmt.Sprintf("The %s header must be true or false.", HeaderAdmin))
		}
		if admin && !v.IsLoggedIn() {
			return model.Viewer{}, failure.NewSilentMalformedRequest("Invalid Viewer",
				fmt.Sprintf("The %s header requires %s.", HeaderAdmin, HeaderViewer))
		}
		v.IsAdmin = admin
	}
	return v, nil
}

// panelIDFromRequest parses the {id} route variable. The route pattern
// only admits digits, so the remaining failure is overflow.
func panelIDFromRequest(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, failure.NewMalformedRequest("Invalid Panel ID",
			fmt.Sprintf("Panel ID %q is not a valid panel ID.", raw))
	}
	return id, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, requestError("INVALID_ARGUMENT", fmt.Sprintf("invalid %s parameter", name), "expected: 1|0|true|false")
	}
	return b, nil
}
