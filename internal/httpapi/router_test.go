package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/John-Robertt/dashpanel/internal/model"
)

func TestRouter_UnknownRouteAndMethod(t *testing.T) {
	var logs bytes.Buffer
	h := NewRouter(testOptions(&logs))

	tests := []struct {
		method string
		path   string
		status int
		code   string
	}{
		{http.MethodGet, "/nope", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodGet, "/Wabc", http.StatusNotFound, "NOT_FOUND"},
		{http.MethodPost, "/W1", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}
	for _, tt := range tests {
		rr := doRequest(t, h, tt.method, tt.path, nil)
		if rr.Code != tt.status {
			t.Fatalf("%s %s status=%d, want %d", tt.method, tt.path, rr.Code, tt.status)
		}
		var resp model.ErrorResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response: %v\nbody=%q", err, rr.Body.String())
		}
		if resp.Error.Code != tt.code {
			t.Fatalf("code=%q, want %q", resp.Error.Code, tt.code)
		}
	}
}

func TestRouter_PanelIDOverflow(t *testing.T) {
	var logs bytes.Buffer
	rr := doRequest(t, NewRouter(testOptions(&logs)), http.MethodGet, "/W99999999999999999999", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d, want 500", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("<title>Invalid Panel ID</title>")) {
		t.Fatalf("body=%s", rr.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	var logs bytes.Buffer
	opt := testOptions(&logs)
	rr := doRequest(t, NewRouter(opt), http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK || rr.Body.String() != "ok\n" {
		t.Fatalf("status=%d body=%q", rr.Code, rr.Body.String())
	}

	opt.Ping = func(ctx context.Context) error { return errors.New("database is locked") }
	rr = doRequest(t, NewRouter(opt), http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
}
