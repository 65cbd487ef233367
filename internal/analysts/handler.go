package analysts

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"soclite/internal/errs"
	"soclite/internal/web"
)

// Handler exposes CRUD over analyst roles.
type Handler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/analysts", h.list)
	r.Post("/api/analysts", h.create)
	r.Put("/api/analysts/{id}", h.update)
	r.Delete("/api/analysts/{id}", h.delete)
	r.Get("/api/analysts/by-level/{level}", h.byLevel)
}

type rolePayload struct {
	Level string `json:"level"`
	Email string `json:"email"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.List(r.Context())
	if err != nil {
		h.Logger.Error("list analysts", "err", err)
		web.Error(w, err)
		return
	}
	if roles == nil {
		roles = []Role{}
	}
	web.JSON(w, http.StatusOK, map[string]any{"analysts": roles})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var p rolePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		web.Error(w, errs.Invalid("invalid JSON body"))
		return
	}
	if p.Level == "" || p.Email == "" {
		web.Error(w, errs.Invalid("level and email are required"))
		return
	}
	role := Role{Level: p.Level, Email: p.Email}
	if err := h.Store.Create(r.Context(), &role); err != nil {
		h.Logger.Error("create analyst", "err", err)
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, map[string]any{"id": role.ID})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		web.Error(w, errs.Invalid("invalid analyst id"))
		return
	}
	var p rolePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		web.Error(w, errs.Invalid("invalid JSON body"))
		return
	}
	if p.Level == "" || p.Email == "" {
		web.Error(w, errs.Invalid("level and email are required"))
		return
	}
	role := Role{ID: id, Level: p.Level, Email: p.Email}
	if err := h.Store.Update(r.Context(), &role); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]string{"message": "analyst updated"})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		web.Error(w, errs.Invalid("invalid analyst id"))
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]string{"message": "analyst deleted"})
}

func (h *Handler) byLevel(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Store.ByLevel(r.Context(), chi.URLParam(r, "level"))
	if err != nil {
		web.Error(w, err)
		return
	}
	if roles == nil {
		roles = []Role{}
	}
	web.JSON(w, http.StatusOK, map[string]any{"analysts": roles})
}
