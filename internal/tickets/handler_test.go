package tickets

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() (*httptest.Server, *fakeStore) {
	m, store, _ := newTestMachine()
	h := &Handler{Machine: m, Logger: quietLogger()}
	r := chi.NewRouter()
	h.Routes(r)
	return httptest.NewServer(r), store
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	srv, store := newTestServer()
	defer srv.Close()

	// Create.
	resp := postJSON(t, srv.URL+"/api/tickets/create",
		`{"event_id": "A1", "client_email": "c@x.com"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		TicketID int64 `json:"ticket_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.Equal(t, StatusNew, store.tickets[created.TicketID].Status)

	base := fmt.Sprintf("%s/api/tickets/%d", srv.URL, created.TicketID)

	// Close succeeds and records the notes.
	resp = postJSON(t, base+"/close", `{"notes": "fixed", "user": "alice"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, StatusResolved, store.tickets[created.TicketID].Status)
	assert.Contains(t, store.tickets[created.TicketID].Notes, "fixed")

	// Second close is an invalid transition.
	resp = postJSON(t, base+"/close", `{"user": "alice"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Reopen moves it to in_progress.
	resp = postJSON(t, base+"/reopen", `{"user": "alice"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, StatusInProgress, store.tickets[created.TicketID].Status)
}

func TestCreateTicketValidation(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/tickets/create", `{"event_id": "A1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestOperationsOnMissingTicketReturn404(t *testing.T) {
	srv, _ := newTestServer()
	defer srv.Close()

	resp := postJSON(t, srv.URL+"/api/tickets/99/assign",
		`{"assigned_to": "bob@x.com", "user": "alice"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/tickets/99/close", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/tickets/99/reopen", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
