package httpapi

import (
	"net/http"
)

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.opt.Ping != nil {
		if err := s.opt.Ping(r.Context()); err != nil {
			s.opt.Logger.Warn("health check failed", "err", err)
			WriteText(w, http.StatusServiceUnavailable, "unavailable\n")
			return
		}
	}
	WriteText(w, http.StatusOK, "ok\n")
}
