package failure

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/secureworks/errors"

	"github.com/John-Robertt/dashpanel/internal/markup"
)

// Logger receives unhandled errors. *slog.Logger satisfies it.
type Logger interface {
	Error(msg string, args ...any)
}

// Presenter renders unhandled errors. The zero value renders without
// logging and without stack traces.
type Presenter struct {
	Logger          Logger
	ShowStackTraces bool

	// FormatTrace renders the stack block; nil means StackTraceView.
	FormatTrace TraceFormatter
}

// Response is a rendered error, ready to be written.
type Response struct {
	Status int

	// Title is the heading: the malformed request title, or the error's
	// type name.
	Title string
	// PageTitle is used for the document <title>.
	PageTitle string

	Body     template.HTML
	HasStack bool
	Text     string

	Caught Caught
}

const (
	classDetail    = "unhandled-exception-detail"
	classWithStack = "unhandled-exception-with-stack"
)

// Present logs err (unless it is a silent malformed request) and renders
// it. The status is always 500, malformed requests included.
func (p *Presenter) Present(err error) *Response {
	if err == nil {
		err = errors.New("unhandled error: <nil>")
	}
	c := Classify(err)
	p.log(c)

	resp := &Response{
		Status:    http.StatusInternalServerError,
		Text:      fmt.Sprintf("%s: %s", c.TypeName, c.Message),
		Caught:    c,
		Title:     c.TypeName,
		PageTitle: "Unhandled Exception",
	}
	switch c.Kind {
	case KindMalformedRequest:
		resp.Title = c.Title
		resp.PageTitle = c.Title
	}

	// Errors that never captured frames get no stack block.
	var stack template.HTML
	if p.ShowStackTraces && len(c.Frames) > 0 {
		if view, ok := p.formatStack(c.Frames); ok {
			stack = markup.Tag("div", markup.Attrs{"class": "unhandled-exception-stack"}, view)
			resp.HasStack = true
		}
	}

	classes := []string{classDetail}
	if resp.HasStack {
		classes = append(classes, classWithStack)
	}
	resp.Body = markup.Tag("div", markup.Attrs{"class": markup.Classes(classes...)},
		markup.Tag("h1", markup.Attrs{"class": "unhandled-exception-title"}, resp.Title),
		markup.Tag("div", markup.Attrs{"class": "unhandled-exception-body"}, markup.EscapeNewlines(c.Message)),
		stack,
	)
	return resp
}

func (p *Presenter) log(c Caught) {
	if c.Kind == KindMalformedRequest && c.Unlogged {
		return
	}
	if p.Logger == nil {
		return
	}
	p.Logger.Error("unhandled exception",
		"type", c.TypeName,
		"kind", c.Kind.String(),
		"error", c.Err,
	)
}

// formatStack never lets a formatting failure escape: errors and panics
// both drop the stack block.
func (p *Presenter) formatStack(frames errors.Frames) (view template.HTML, ok bool) {
	format := p.FormatTrace
	if format == nil {
		format = StackTraceView
	}
	defer func() {
		if r := recover(); r != nil {
			view, ok = "", false
		}
	}()
	view, err := format(frames)
	if err != nil {
		return "", false
	}
	return view, true
}

// WriteText writes the "{type}: {message}" line.
func (r *Response) WriteText(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(r.Status)
	_, _ = w.Write([]byte(r.Text + "\n"))
}

// WriteHTML writes the standalone error page. If the page template fails
// the plain-text form is written instead.
func (r *Response) WriteHTML(w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, r); err != nil {
		r.WriteText(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(r.Status)
	_, _ = w.Write(buf.Bytes())
}
