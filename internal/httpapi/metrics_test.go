package httpapi

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
)

func TestMetrics_CountsRequestsAndErrors(t *testing.T) {
	metrics = newMetricsStore()
	var logs bytes.Buffer
	h := NewHandler(testOptions(&logs))

	if rr := doRequest(t, h, http.MethodGet, "/healthz", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthz status=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr := doRequest(t, h, http.MethodGet, "/W99", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("missing panel status=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr := doRequest(t, h, http.MethodGet, "/W1", http.Header{HeaderViewer: {"bad"}}); rr.Code != http.StatusInternalServerError {
		t.Fatalf("bad viewer status=%d", rr.Code)
	}
	if rr := doRequest(t, h, http.MethodGet, "/nope", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("unknown route status=%d", rr.Code)
	}

	// The /metrics request itself is not counted inside its own response.
	rr := doRequest(t, h, http.MethodGet, "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status=%d body=%q", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{
		"dashpanel_http_requests_total 4\n",
		`pattern="GET /healthz",status="200"} 1`,
		`pattern="GET /W{id:[0-9]+}",status="404"} 1`,
		`pattern="GET /W{id:[0-9]+}",status="500"} 1`,
		`pattern="(unmatched)",status="404"} 1`,
		`dashpanel_app_errors_total{stage="load_panel",code="PANEL_NOT_FOUND"} 1`,
		`dashpanel_unhandled_errors_total{kind="malformed-request"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics body missing %q, got:\n%s", want, body)
		}
	}
}
