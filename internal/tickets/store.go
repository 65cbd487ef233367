package tickets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soclite/internal/errs"
)

// Store owns all ticket persistence. Every mutating method writes the
// entity change and its history row in one transaction.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, t *Ticket) error {
	t.UpdatedAt = time.Now().UTC()
	const q = `
		INSERT INTO security_tickets (event_id, status, severity, assigned_to, notes, updated_at, client_email)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, q,
		t.EventID, t.Status, t.Severity, t.AssignedTo, t.Notes, t.UpdatedAt, t.ClientEmail,
	).Scan(&t.ID)
}

func (s *Store) Get(ctx context.Context, id int64) (*Ticket, error) {
	const q = `
		SELECT id, event_id, status, severity, COALESCE(assigned_to, ''),
		       COALESCE(notes, ''), updated_at, client_email
		FROM security_tickets WHERE id = $1
	`
	var t Ticket
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.EventID, &t.Status, &t.Severity, &t.AssignedTo,
		&t.Notes, &t.UpdatedAt, &t.ClientEmail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Assign updates the assignee only, leaving status untouched, and returns
// the previous assignee alongside the updated ticket.
func (s *Store) Assign(ctx context.Context, id int64, assignee, actor string) (string, *Ticket, error) {
	var old string
	var t *Ticket
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		old = cur.AssignedTo
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			`UPDATE security_tickets SET assigned_to = $1, updated_at = $2 WHERE id = $3`,
			assignee, now, id); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, id, "assigned_to", old, assignee, actor, now); err != nil {
			return err
		}
		cur.AssignedTo = assignee
		cur.UpdatedAt = now
		t = cur
		return nil
	})
	return old, t, err
}

// Close appends the closure notes and resolves the ticket. Closing an
// already resolved ticket is a transition error.
func (s *Store) Close(ctx context.Context, id int64, notes, actor string) (*Ticket, error) {
	var t *Ticket
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cur.Status.CanClose() {
			return errs.InvalidTransition("ticket already resolved")
		}
		now := time.Now().UTC()
		newNotes := appendClosureNotes(cur.Notes, notes, now)
		if _, err := tx.ExecContext(ctx,
			`UPDATE security_tickets SET status = $1, notes = $2, updated_at = $3 WHERE id = $4`,
			StatusResolved, newNotes, now, id); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, id, "status", string(cur.Status), string(StatusResolved), actor, now); err != nil {
			return err
		}
		cur.Status = StatusResolved
		cur.Notes = newNotes
		cur.UpdatedAt = now
		t = cur
		return nil
	})
	return t, err
}

// Reopen moves a resolved ticket back to in_progress.
func (s *Store) Reopen(ctx context.Context, id int64, actor string) (*Ticket, error) {
	var t *Ticket
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := getForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !cur.Status.CanReopen() {
			return errs.InvalidTransition("only resolved tickets can be reopened")
		}
		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx,
			`UPDATE security_tickets SET status = $1, updated_at = $2 WHERE id = $3`,
			StatusInProgress, now, id); err != nil {
			return err
		}
		if err := insertHistory(ctx, tx, id, "status", string(cur.Status), string(StatusInProgress), actor, now); err != nil {
			return err
		}
		cur.Status = StatusInProgress
		cur.UpdatedAt = now
		t = cur
		return nil
	})
	return t, err
}

func (s *Store) Search(ctx context.Context, query string, limit int) ([]Ticket, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, event_id, status, severity, COALESCE(assigned_to, ''),
		       COALESCE(notes, ''), updated_at, client_email
		FROM security_tickets
		WHERE event_id ILIKE $1 OR notes ILIKE $1 OR assigned_to ILIKE $1
		ORDER BY updated_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, q, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.EventID, &t.Status, &t.Severity, &t.AssignedTo,
			&t.Notes, &t.UpdatedAt, &t.ClientEmail); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// History returns the audit trail for one ticket, oldest first.
func (s *Store) History(ctx context.Context, ticketID int64) ([]HistoryEntry, error) {
	const q = `
		SELECT id, ticket_id, field_changed, COALESCE(old_value, ''), COALESCE(new_value, ''),
		       changed_by, changed_at
		FROM ticket_history WHERE ticket_id = $1 ORDER BY changed_at, id
	`
	rows, err := s.db.QueryContext(ctx, q, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.TicketID, &e.FieldChanged, &e.OldValue, &e.NewValue,
			&e.ChangedBy, &e.ChangedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// getForUpdate reads the ticket row with a row lock so concurrent
// transitions serialize on the same ticket.
func getForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*Ticket, error) {
	const q = `
		SELECT id, event_id, status, severity, COALESCE(assigned_to, ''),
		       COALESCE(notes, ''), updated_at, client_email
		FROM security_tickets WHERE id = $1 FOR UPDATE
	`
	var t Ticket
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.EventID, &t.Status, &t.Severity, &t.AssignedTo,
		&t.Notes, &t.UpdatedAt, &t.ClientEmail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ticket %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, ticketID int64, field, oldVal, newVal, actor string, at time.Time) error {
	const q = `
		INSERT INTO ticket_history (ticket_id, field_changed, old_value, new_value, changed_by, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, q, ticketID, field, oldVal, newVal, actor, at)
	return err
}
