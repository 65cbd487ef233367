package logs

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"soclite/internal/errs"
	"soclite/internal/web"
)

type Handler struct {
	Ingestor *Ingestor
	Store    *Store
	Logger   *slog.Logger
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/logs", h.ingest)
	r.Get("/api/logs/search", h.search)
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	var p Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		web.Error(w, errs.Invalid("invalid JSON body"))
		return
	}
	rec, err := h.Ingestor.Ingest(r.Context(), &p)
	if err != nil {
		h.Logger.Error("ingest event", "err", err)
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]any{
		"message": "log stored successfully",
		"id":      rec.ID,
	})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	results, err := h.Store.Search(r.Context(), r.URL.Query().Get("q"), 50)
	if err != nil {
		h.Logger.Error("search logs", "err", err)
		web.Error(w, err)
		return
	}
	if results == nil {
		results = []SearchResult{}
	}
	web.JSON(w, http.StatusOK, results)
}
