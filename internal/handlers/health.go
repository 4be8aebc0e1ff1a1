package handlers

import (
	"net/http"

	"github.com/nkiryanov/rewear/internal/handlers/render"
	"github.com/nkiryanov/rewear/internal/logger"
)

func handleHealth(health healthChecker, l logger.Logger) http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := health.Ping(r.Context()); err != nil {
			l.Error("database ping failed", "error", err)
			render.JSONWithStatus(w, response{Status: "unavailable"}, http.StatusServiceUnavailable)
			return
		}
		render.JSON(w, response{Status: "ok"})
	})
}
