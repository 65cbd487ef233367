package correlation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"soclite/internal/errs"
	"soclite/internal/web"
)

type Handler struct {
	Store  *Store
	Logger *slog.Logger
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/api/correlation-rules", h.createRule)
	r.Get("/api/correlated-alerts", h.listAlerts)
}

type rulePayload struct {
	Name        string `json:"rule_name"`
	Keyword     string `json:"keyword"`
	Threshold   int    `json:"threshold"`
	Window      string `json:"window"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var p rulePayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		web.Error(w, errs.Invalid("invalid JSON body"))
		return
	}
	if p.Name == "" || p.Keyword == "" || p.Threshold == 0 || p.Window == "" || p.Severity == "" {
		web.Error(w, errs.Invalid("all fields except description are required"))
		return
	}
	window, err := time.ParseDuration(p.Window)
	if err != nil {
		web.Error(w, errs.Invalid("invalid window duration: %v", err))
		return
	}
	rule := Rule{
		Name:        p.Name,
		Keyword:     p.Keyword,
		Threshold:   p.Threshold,
		Window:      window,
		Severity:    p.Severity,
		Description: p.Description,
	}
	if err := h.Store.CreateRule(r.Context(), &rule); err != nil {
		h.Logger.Error("create correlation rule", "err", err)
		web.Error(w, err)
		return
	}
	web.JSON(w, http.StatusCreated, map[string]any{
		"message": "correlation rule added",
		"id":      rule.ID,
	})
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.Store.RecentAlerts(r.Context(), 50)
	if err != nil {
		h.Logger.Error("list correlated alerts", "err", err)
		web.Error(w, err)
		return
	}
	if alerts == nil {
		alerts = []Alert{}
	}
	web.JSON(w, http.StatusOK, alerts)
}
