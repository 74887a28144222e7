package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/secureworks/errors"
)

// NewHandler returns the production handler: routes plus panic recovery
// and observability middleware.
//
// Tests can still use NewRouter directly to avoid noisy logs unless needed.
func NewHandler(opt Options) http.Handler {
	s := newServer(opt)
	return withObservability(s.opt.Logger, s.withRecovery(s.router()))
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

type routeKey struct{}

// routeInfo is filled in by recordRoute once the router has matched, so
// the outer middleware can label requests by route template.
type routeInfo struct {
	pattern string
}

func recordRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info, ok := r.Context().Value(routeKey{}).(*routeInfo); ok {
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					info.pattern = r.Method + " " + tpl
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

func withObservability(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		info := &routeInfo{}
		r = r.WithContext(context.WithValue(r.Context(), routeKey{}, info))
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		status := sw.status
		if status == 0 {
			status = http.StatusOK
		}

		// Unmatched paths share one label to keep cardinality low.
		pattern := info.pattern
		if pattern == "" {
			pattern = "(unmatched)"
		}
		metricsIncRequest(pattern, status)

		// Never log the query string.
		if r.URL.Path != "/healthz" && r.URL.Path != "/metrics" {
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"pattern", pattern,
				"status", status,
				"dur", time.Since(start).Round(time.Millisecond),
				"bytes", sw.bytes,
			)
		}
	})
}

// PanicError carries a recovered panic value.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// withRecovery turns handler panics into error pages. The stack trace is
// captured while the panicking frames are still on the stack.
func (s *server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			s.writeUnhandled(w, r, errors.WithStackTrace(&PanicError{Value: v}))
		}()
		next.ServeHTTP(w, r)
	})
}
