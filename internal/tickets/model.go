package tickets

import (
	"fmt"
	"time"

	"soclite/internal/errs"
)

// Status is the closed set of ticket states. All transitions go through
// the Machine; nothing writes the column directly.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// ParseStatus validates a caller-supplied status, defaulting to new.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusNew, nil
	case StatusNew, StatusInProgress, StatusResolved:
		return Status(s), nil
	}
	return "", errs.Invalid("unknown status %q", s)
}

// CanClose reports whether a close transition is legal from s.
func (s Status) CanClose() bool { return s != StatusResolved }

// CanReopen reports whether a reopen transition is legal from s.
func (s Status) CanReopen() bool { return s == StatusResolved }

// Ticket is the work-tracking record for human remediation of an event.
type Ticket struct {
	ID          int64     `json:"id"`
	EventID     string    `json:"event_id"`
	Status      Status    `json:"status"`
	Severity    string    `json:"severity"`
	AssignedTo  string    `json:"assigned_to"`
	Notes       string    `json:"notes"`
	UpdatedAt   time.Time `json:"updated_at"`
	ClientEmail string    `json:"client_email"`
}

// Summary renders the ticket for notification bodies.
func (t *Ticket) Summary() string {
	return fmt.Sprintf("Event ID: %s\nStatus: %s\nSeverity: %s\nNotes: %s\n",
		t.EventID, t.Status, t.Severity, t.Notes)
}

// HistoryEntry is the append-only audit record of one field change.
type HistoryEntry struct {
	ID           int64     `json:"id"`
	TicketID     int64     `json:"ticket_id"`
	FieldChanged string    `json:"field_changed"`
	OldValue     string    `json:"old_value"`
	NewValue     string    `json:"new_value"`
	ChangedBy    string    `json:"changed_by"`
	ChangedAt    time.Time `json:"changed_at"`
}

// appendClosureNotes preserves prior notes and separates the closure text
// with a timestamped marker.
func appendClosureNotes(existing, closure string, at time.Time) string {
	if closure == "" {
		closure = "No notes"
	}
	return fmt.Sprintf("%s\n\n--- CLOSURE NOTES (%s) ---\n%s",
		existing, at.UTC().Format(time.RFC3339), closure)
}
