package failure

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/secureworks/errors"
)

type recordingLogger struct {
	calls []string
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.calls = append(l.calls, fmt.Sprint(append([]any{msg}, args...)...))
}

type quotaError struct{ msg string }

func (e *quotaError) Error() string { return e.msg }

func TestPresent_GenericErrorUsesTypeNameAnd500(t *testing.T) {
	log := &recordingLogger{}
	p := &Presenter{Logger: log}

	resp := p.Present(&quotaError{msg: "quota exceeded"})

	if resp.Status != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", resp.Status)
	}
	if resp.Title != "failure.quotaError" {
		t.Fatalf("title=%q, want %q", resp.Title, "failure.quotaError")
	}
	if resp.PageTitle != "Unhandled Exception" {
		t.Fatalf("page title=%q", resp.PageTitle)
	}
	if len(log.calls) != 1 {
		t.Fatalf("logger calls=%d, want 1", len(log.calls))
	}
	if resp.Text != "failure.quotaError: quota exceeded" {
		t.Fatalf("text=%q", resp.Text)
	}
}

func TestPresent_LoggingPolicy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"generic", errors.New("boom"), 1},
		{"malformed logged", NewMalformedRequest("Bad Request", "bad cookie"), 1},
		{"malformed silent", NewSilentMalformedRequest("Bad Request", "bad cookie"), 0},
		{"wrapped silent", fmt.Errorf("route: %w", &MalformedRequestError{Title: "T", Message: "m", Unlogged: true}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			p := &Presenter{Logger: log, ShowStackTraces: true}
			resp := p.Present(tt.err)
			if len(log.calls) != tt.want {
				t.Fatalf("logger calls=%d, want %d", len(log.calls), tt.want)
			}
			if resp.Status != http.StatusInternalServerError {
				t.Fatalf("status=%d, want 500", resp.Status)
			}
		})
	}
}

func TestPresent_MalformedRequestUsesItsTitle(t *testing.T) {
	p := &Presenter{}
	resp := p.Present(NewSilentMalformedRequest("Invalid Viewer", "viewer header is not a PHID"))

	if resp.Caught.Kind != KindMalformedRequest {
		t.Fatalf("kind=%v", resp.Caught.Kind)
	}
	if resp.Title != "Invalid Viewer" || resp.PageTitle != "Invalid Viewer" {
		t.Fatalf("title=%q page=%q", resp.Title, resp.PageTitle)
	}
	if !strings.Contains(string(resp.Body), `<h1 class="unhandled-exception-title">Invalid Viewer</h1>`) {
		t.Fatalf("body missing heading:\n%s", resp.Body)
	}
	if resp.Text != "failure.MalformedRequestError: viewer header is not a PHID" {
		t.Fatalf("text=%q", resp.Text)
	}
}

func TestPresent_BodyIsEscapedWithLineBreaks(t *testing.T) {
	p := &Presenter{}
	resp := p.Present(errors.New("line <one>\nline & two"))
	body := string(resp.Body)
	if !strings.Contains(body, "line &lt;one&gt;<br />\nline &amp; two") {
		t.Fatalf("body not escaped:\n%s", body)
	}
	if strings.Contains(body, "<one>") {
		t.Fatalf("raw message leaked:\n%s", body)
	}
}

func TestPresent_StackTraceRendered(t *testing.T) {
	p := &Presenter{ShowStackTraces: true}
	resp := p.Present(errors.NewWithStackTrace("with trace"))

	if !resp.HasStack {
		t.Fatalf("expected stack block")
	}
	body := string(resp.Body)
	if !strings.Contains(body, `class="unhandled-exception-detail unhandled-exception-with-stack"`) {
		t.Fatalf("missing with-stack class:\n%s", body)
	}
	if !strings.Contains(body, `<table class="stack-trace-view">`) {
		t.Fatalf("missing stack table:\n%s", body)
	}
	if !strings.Contains(body, "presenter_test.go") {
		t.Fatalf("stack does not mention the test file:\n%s", body)
	}
}

func TestPresent_NoFramesNoStackBlock(t *testing.T) {
	called := false
	p := &Presenter{ShowStackTraces: true, FormatTrace: func(errors.Frames) (template.HTML, error) {
		called = true
		return "<p>frames</p>", nil
	}}
	resp := p.Present(fmt.Errorf("query panels: %w", fs.ErrClosed))

	body := string(resp.Body)
	if resp.HasStack || called {
		t.Fatalf("HasStack=%v formatter called=%v for an error without frames", resp.HasStack, called)
	}
	if strings.Contains(body, classWithStack) || strings.Contains(body, "unhandled-exception-stack") {
		t.Fatalf("stack block rendered without frames:\n%s", body)
	}
}

func TestPresent_StackHiddenWhenDisabled(t *testing.T) {
	p := &Presenter{}
	resp := p.Present(errors.NewWithStackTrace("with trace"))
	if resp.HasStack || strings.Contains(string(resp.Body), "unhandled-exception-stack") {
		t.Fatalf("stack rendered while disabled:\n%s", resp.Body)
	}
}

func TestPresent_TraceFormattingFailureIsSuppressed(t *testing.T) {
	formatters := map[string]TraceFormatter{
		"error": func(errors.Frames) (template.HTML, error) {
			return "<p>partial</p>", fmt.Errorf("formatter broke")
		},
		"panic": func(errors.Frames) (template.HTML, error) {
			panic("formatter exploded")
		},
	}
	for name, f := range formatters {
		t.Run(name, func(t *testing.T) {
			log := &recordingLogger{}
			p := &Presenter{Logger: log, ShowStackTraces: true, FormatTrace: f}
			resp := p.Present(errors.WithStackTrace(&quotaError{msg: "disk full"}))

			body := string(resp.Body)
			if resp.HasStack {
				t.Fatalf("HasStack=true after formatter failure")
			}
			if strings.Contains(body, classWithStack) || strings.Contains(body, "unhandled-exception-stack") || strings.Contains(body, "partial") {
				t.Fatalf("stack leaked into body:\n%s", body)
			}
			if !strings.Contains(body, "failure.quotaError") || !strings.Contains(body, "disk full") {
				t.Fatalf("title/body missing:\n%s", body)
			}
			if len(log.calls) != 1 {
				t.Fatalf("logger calls=%d, want 1", len(log.calls))
			}
		})
	}
}

func TestTypeName_LooksThroughStackWrappers(t *testing.T) {
	pe := &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}
	if got := TypeName(errors.WithStackTrace(pe)); got != "fs.PathError" {
		t.Fatalf("TypeName=%q, want fs.PathError", got)
	}
	if got := TypeName(fmt.Errorf("ctx: %w", pe)); got != "fmt.wrapError" {
		t.Fatalf("TypeName=%q, want fmt.wrapError", got)
	}
}

func TestResponse_WriteHTMLAndText(t *testing.T) {
	p := &Presenter{}
	resp := p.Present(&quotaError{msg: "a<b"})

	rr := httptest.NewRecorder()
	resp.WriteHTML(rr)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Fatalf("Content-Type=%q", got)
	}
	page := rr.Body.String()
	for _, want := range []string{
		"<title>Unhandled Exception</title>",
		`<body class="unhandled-exception">`,
		"a&lt;b",
		".stack-trace-view",
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q:\n%s", want, page)
		}
	}

	rr = httptest.NewRecorder()
	resp.WriteText(rr)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := rr.Body.String(); got != "failure.quotaError: a<b\n" {
		t.Fatalf("text body=%q", got)
	}
}
