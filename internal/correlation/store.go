package correlation

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"soclite/internal/errs"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateRule validates and persists an operator rule.
func (s *Store) CreateRule(ctx context.Context, r *Rule) error {
	if r.Threshold < 1 {
		return errs.Invalid("threshold must be at least 1")
	}
	if r.Window <= 0 {
		return errs.Invalid("window must be positive")
	}
	const q = `
		INSERT INTO correlation_rules (rule_name, keyword, threshold, window_seconds, severity, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, q,
		r.Name, r.Keyword, r.Threshold, int64(r.Window/time.Second), r.Severity, r.Description,
	).Scan(&r.ID)
}

// Rules returns every stored rule. Evaluation order is not significant.
func (s *Store) Rules(ctx context.Context) ([]Rule, error) {
	const q = `
		SELECT id, rule_name, keyword, threshold, window_seconds, severity, COALESCE(description, '')
		FROM correlation_rules
	`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Rule
	for rows.Next() {
		var r Rule
		var secs int64
		if err := rows.Scan(&r.ID, &r.Name, &r.Keyword, &r.Threshold, &secs, &r.Severity, &r.Description); err != nil {
			return nil, err
		}
		r.Window = time.Duration(secs) * time.Second
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *Store) RuleCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM correlation_rules`).Scan(&n)
	return n, err
}

func (s *Store) CreateAlert(ctx context.Context, a *Alert) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	const q = `
		INSERT INTO correlated_alerts (correlation_type, related_alerts, severity, agent_id, correlation_notes, ts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	return s.db.QueryRowContext(ctx, q,
		a.Type, pq.Array(a.RelatedEvents), a.Severity, a.AgentID, a.Notes, a.Timestamp,
	).Scan(&a.ID)
}

// RecentAlerts returns up to limit alerts, newest first.
func (s *Store) RecentAlerts(ctx context.Context, limit int) ([]Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT id, correlation_type, related_alerts, COALESCE(severity, ''),
		       COALESCE(agent_id, ''), COALESCE(correlation_notes, ''), ts
		FROM correlated_alerts
		ORDER BY ts DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Alert
	for rows.Next() {
		var a Alert
		var related pq.StringArray
		if err := rows.Scan(&a.ID, &a.Type, &related, &a.Severity, &a.AgentID, &a.Notes, &a.Timestamp); err != nil {
			return nil, err
		}
		a.RelatedEvents = []string(related)
		res = append(res, a)
	}
	return res, rows.Err()
}
