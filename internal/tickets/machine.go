package tickets

import (
	"context"
	"fmt"
	"log/slog"

	"soclite/internal/analysts"
	"soclite/internal/errs"
	"soclite/internal/notify"
)

// ticketStore is the persistence surface the Machine drives. *Store
// implements it; tests substitute a fake.
type ticketStore interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id int64) (*Ticket, error)
	Assign(ctx context.Context, id int64, assignee, actor string) (string, *Ticket, error)
	Close(ctx context.Context, id int64, notes, actor string) (*Ticket, error)
	Reopen(ctx context.Context, id int64, actor string) (*Ticket, error)
	Search(ctx context.Context, query string, limit int) ([]Ticket, error)
}

type directory interface {
	EmailsForLevel(ctx context.Context, level string) ([]string, error)
}

// Machine owns the ticket lifecycle. Every transition persists its audit
// entry transactionally (in the store) and fans out notifications to the
// client address and every analyst tier.
type Machine struct {
	store  ticketStore
	dir    directory
	queue  notify.Queuer
	logger *slog.Logger
}

func NewMachine(store ticketStore, dir directory, queue notify.Queuer, logger *slog.Logger) *Machine {
	return &Machine{store: store, dir: dir, queue: queue, logger: logger}
}

// CreateParams carries caller input for a new ticket.
type CreateParams struct {
	EventID     string
	Status      string
	Severity    string
	AssignedTo  string
	Notes       string
	ClientEmail string
}

// Create opens a ticket in the caller-supplied status (default new) and
// notifies the usual audience. An initial assignee also gets a direct
// message.
func (m *Machine) Create(ctx context.Context, p CreateParams) (int64, error) {
	if p.EventID == "" || p.ClientEmail == "" {
		return 0, errs.Invalid("event_id and client_email are required")
	}
	status, err := ParseStatus(p.Status)
	if err != nil {
		return 0, err
	}
	if p.Severity == "" {
		p.Severity = "low"
	}
	t := &Ticket{
		EventID:     p.EventID,
		Status:      status,
		Severity:    p.Severity,
		AssignedTo:  p.AssignedTo,
		Notes:       p.Notes,
		ClientEmail: p.ClientEmail,
	}
	if err := m.store.Create(ctx, t); err != nil {
		return 0, fmt.Errorf("create ticket: %w", err)
	}
	m.logger.Info("ticket created", "id", t.ID, "event", t.EventID)
	m.broadcast(ctx, t, "created")
	if t.AssignedTo != "" {
		m.notifyAssignee(t)
	}
	return t.ID, nil
}

// Assign sets the assignee from any state. A ticket going from unassigned
// to assigned additionally notifies the new assignee directly.
func (m *Machine) Assign(ctx context.Context, id int64, assignee, actor string) error {
	if assignee == "" {
		return errs.Invalid("assigned_to is required")
	}
	old, t, err := m.store.Assign(ctx, id, assignee, actor)
	if err != nil {
		return err
	}
	m.logger.Info("ticket assigned", "id", id, "assignee", assignee, "actor", actor)
	m.broadcast(ctx, t, "assigned")
	if old == "" {
		m.notifyAssignee(t)
	}
	return nil
}

// Close resolves the ticket, appending the closure notes.
func (m *Machine) Close(ctx context.Context, id int64, notes, actor string) error {
	t, err := m.store.Close(ctx, id, notes, actor)
	if err != nil {
		return err
	}
	m.logger.Info("ticket closed", "id", id, "actor", actor)
	m.broadcast(ctx, t, "closed")
	return nil
}

// Reopen moves a resolved ticket back to in_progress.
func (m *Machine) Reopen(ctx context.Context, id int64, actor string) error {
	t, err := m.store.Reopen(ctx, id, actor)
	if err != nil {
		return err
	}
	m.logger.Info("ticket reopened", "id", id, "actor", actor)
	m.broadcast(ctx, t, "reopened")
	return nil
}

// EmailClient re-sends the ticket summary to its audience on demand.
func (m *Machine) EmailClient(ctx context.Context, id int64) error {
	t, err := m.store.Get(ctx, id)
	if err != nil {
		return err
	}
	m.broadcast(ctx, t, "shared")
	return nil
}

func (m *Machine) Search(ctx context.Context, query string) ([]Ticket, error) {
	return m.store.Search(ctx, query, 50)
}

// broadcast notifies the client (when set) and every analyst registered at
// each escalation tier. This is deliberately broadcast-to-all-tiers, not
// filtered by the ticket's severity.
func (m *Machine) broadcast(ctx context.Context, t *Ticket, event string) {
	details := t.Summary()
	if t.ClientEmail != "" {
		m.queue.Enqueue(fmt.Sprintf("[Client Alert] Ticket %s", event), details, t.ClientEmail)
	}
	for _, tier := range analysts.Tiers {
		emails, err := m.dir.EmailsForLevel(ctx, tier)
		if err != nil {
			m.logger.Error("resolve analyst tier", "tier", tier, "err", err)
			continue
		}
		for _, email := range emails {
			m.queue.Enqueue(fmt.Sprintf("[%s Alert] Ticket %s", tier, event), details, email)
		}
	}
}

func (m *Machine) notifyAssignee(t *Ticket) {
	m.queue.Enqueue(
		fmt.Sprintf("[Assigned Alert] Ticket %d assigned to you", t.ID),
		fmt.Sprintf("You have been assigned ticket #%d.\n\n%s", t.ID, t.Summary()),
		t.AssignedTo,
	)
}
