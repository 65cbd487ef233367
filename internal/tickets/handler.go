package tickets

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"soclite/internal/errs"
	"soclite/internal/web"
)

type Handler struct {
	Machine *Machine
	Logger  *slog.Logger
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/tickets/create", h.create)
	r.Post("/api/tickets/{id}/assign", h.assign)
	r.Post("/api/tickets/{id}/close", h.close)
	r.Post("/api/tickets/{id}/reopen", h.reopen)
	r.Post("/api/tickets/{id}/email-client", h.emailClient)
	r.Get("/api/tickets/search", h.search)
}

func ticketID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errs.Invalid("invalid ticket id")
	}
	return id, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var p struct {
		EventID     string `json:"event_id"`
		Status      string `json:"status"`
		Severity    string `json:"severity"`
		AssignedTo  string `json:"assigned_to"`
		Notes       string `json:"notes"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		web.Error(w, errs.Invalid("invalid JSON body"))
		return
	}
	id, err := h.Machine.Create(r.Context(), CreateParams{
		EventID:     p.EventID,
		Status:      p.Status,
		Severity:    p.Severity,
		AssignedTo:  p.AssignedTo,
		Notes:       p.Notes,
		ClientEmail: p.ClientEmail,
	})
	if err != nil {
		h.Logger.Error("create ticket", "err", err)
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, map[string]any{"ticket_id": id})
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		web.Error(w, err)
		return
	}
	var p struct {
		AssignedTo string `json:"assigned_to"`
		Actor      string `json:"user"`
	}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		web.Error(w, errs.Invalid("invalid JSON body"))
		return
	}
	if p.Actor == "" {
		p.Actor = "system"
	}
	if err := h.Machine.Assign(r.Context(), id, p.AssignedTo, p.Actor); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]string{
		"message": "ticket assigned to " + p.AssignedTo,
	})
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		web.Error(w, err)
		return
	}
	var p struct {
		Notes string `json:"notes"`
		Actor string `json:"user"`
	}
	// Body is optional on close.
	_ = json.NewDecoder(r.Body).Decode(&p)
	if p.Actor == "" {
		p.Actor = "system"
	}
	if err := h.Machine.Close(r.Context(), id, p.Notes, p.Actor); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]string{"message": "ticket closed"})
}

func (h *Handler) reopen(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		web.Error(w, err)
		return
	}
	var p struct {
		Actor string `json:"user"`
	}
	_ = json.NewDecoder(r.Body).Decode(&p)
	if p.Actor == "" {
		p.Actor = "system"
	}
	if err := h.Machine.Reopen(r.Context(), id, p.Actor); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]string{"message": "ticket reopened"})
}

func (h *Handler) emailClient(w http.ResponseWriter, r *http.Request) {
	id, err := ticketID(r)
	if err != nil {
		web.Error(w, err)
		return
	}
	if err := h.Machine.EmailClient(r.Context(), id); err != nil {
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusOK, map[string]string{"message": "ticket shared with client"})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	results, err := h.Machine.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.Logger.Error("search tickets", "err", err)
		web.Error(w, err)
		return
	}
	if results == nil {
		results = []Ticket{}
	}
	web.JSON(w, http.StatusOK, map[string]any{"results": results})
}
