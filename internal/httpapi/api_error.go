package httpapi

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/John-Robertt/dashpanel/internal/model"
	"github.com/John-Robertt/dashpanel/internal/store"
)

// APIError is used by the HTTP layer for request validation and a few
// HTTP-specific errors.
type APIError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *APIError) Unwrap() error { return e.Cause }

func apiError(status int, app model.AppError, cause error) error {
	return &APIError{Status: status, AppError: app, Cause: cause}
}

func requestError(code, message, hint string) error {
	return apiError(http.StatusBadRequest, model.AppError{
		Code:    code,
		Message: message,
		Stage:   "validate_request",
		Hint:    hint,
	}, nil)
}

// writeErr answers request-level failures with a JSON AppError. Anything
// else is unhandled and goes to the error page presenter.
func (s *server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	var ae *APIError
	if errors.As(err, &ae) {
		WriteError(w, ae.Status, ae.AppError)
		return
	}

	var nf *store.NotFoundError
	if errors.As(err, &nf) {
		WriteError(w, http.StatusNotFound, nf.AppError)
		return
	}

	s.writeUnhandled(w, r, err)
}

func (s *server) writeUnhandled(w http.ResponseWriter, r *http.Request, err error) {
	resp := s.presenter.Present(err)
	metricsIncUnhandled(resp.Caught.Kind.String())
	if prefersText(r) {
		resp.WriteText(w)
		return
	}
	resp.WriteHTML(w)
}

// prefersText reports whether the client accepts text/plain but not
// text/html. A missing Accept header gets HTML.
func prefersText(r *http.Request) bool {
	plain, html := false, false
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if q, ok := params["q"]; ok {
			if v, err := strconv.ParseFloat(q, 64); err == nil && v == 0 {
				continue
			}
		}
		switch mt {
		case "text/plain":
			plain = true
		case "text/html", "text/*", "*/*":
			html = true
		}
	}
	return plain && !html
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, model.AppError{
		Code:    "NOT_FOUND",
		Message: "no route for " + r.URL.Path,
		Stage:   "route",
	})
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, model.AppError{
		Code:    "METHOD_NOT_ALLOWED",
		Message: r.Method + " is not allowed on " + r.URL.Path,
		Stage:   "route",
	})
}
