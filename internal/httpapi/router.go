package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/John-Robertt/dashpanel/internal/failure"
)

type server struct {
	opt       Options
	presenter *failure.Presenter
}

func newServer(opt Options) *server {
	opt = opt.withDefaults()
	return &server{
		opt: opt,
		presenter: &failure.Presenter{
			Logger:          opt.Logger,
			ShowStackTraces: opt.ShowStackTraces,
		},
	}
}

// NewRouter returns the routes without middleware.
func NewRouter(opt Options) http.Handler {
	return newServer(opt).router()
}

func (s *server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(recordRoute)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/metrics", handleMetrics).Methods(http.MethodGet)

	r.HandleFunc("/W{id:[0-9]+}", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/panel/view/{id:[0-9]+}/", s.handlePage).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/panel/render/{id:[0-9]+}/", s.handleFragment).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(handleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	return r
}
