package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"soclite/internal/analysts"
	"soclite/internal/correlation"
	"soclite/internal/logs"
	"soclite/internal/tickets"
	"soclite/internal/web"
)

func NewRouter(
	logger *slog.Logger,
	logHandler *logs.Handler,
	corrHandler *correlation.Handler,
	ticketHandler *tickets.Handler,
	analystHandler *analysts.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLog(logger))

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		web.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	logHandler.Routes(r)
	corrHandler.Routes(r)
	ticketHandler.Routes(r)
	analystHandler.Routes(r)

	return r
}
