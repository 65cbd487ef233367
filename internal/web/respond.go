// Package web holds the JSON response helpers shared by all handlers.
package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"soclite/internal/errs"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps the error taxonomy onto HTTP status codes: validation and
// transition failures are 400, missing entities 404, everything else
// (store errors included) surfaces as 400 with the underlying message.
func Error(w http.ResponseWriter, err error) {
	var ve *errs.ValidationError
	var te *errs.TransitionError
	switch {
	case errors.As(err, &ve):
		JSON(w, http.StatusBadRequest, map[string]string{"error": ve.Reason})
	case errors.As(err, &te):
		JSON(w, http.StatusBadRequest, map[string]string{"error": te.Reason})
	case errors.Is(err, errs.ErrNotFound):
		JSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		JSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}
