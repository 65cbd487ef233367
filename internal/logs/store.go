package logs

import (
	"context"
	"database/sql"
	"time"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Insert(ctx context.Context, rec *Record) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	const q = `
		INSERT INTO logs (
			event_id, ts, rule_level, rule_description, rule_id,
			mitre_ids, mitre_tactics, mitre_techniques,
			agent_id, agent_name, manager_name,
			full_log, location, command, srcuser, dstuser, tty, pwd, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		RETURNING id, created_at
	`
	row := s.db.QueryRowContext(ctx, q,
		rec.EventID,
		rec.Timestamp,
		rec.RuleLevel,
		rec.RuleDescription,
		rec.RuleID,
		rec.MitreIDs,
		rec.MitreTactics,
		rec.MitreTechniques,
		rec.AgentID,
		rec.AgentName,
		rec.ManagerName,
		rec.FullLog,
		rec.Location,
		rec.Command,
		rec.SrcUser,
		rec.DstUser,
		rec.TTY,
		rec.PWD,
		time.Now().UTC(),
	)
	return row.Scan(&rec.ID, &rec.CreatedAt)
}

// CountKeywordMatches counts records for one agent whose raw log contains
// the keyword, with timestamps at or after since. Case-insensitive, same
// as the search surface.
func (s *Store) CountKeywordMatches(ctx context.Context, agentID, keyword string, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*) FROM logs
		WHERE agent_id = $1 AND full_log ILIKE $2 AND ts > $3
	`
	var n int
	err := s.db.QueryRowContext(ctx, q, agentID, "%"+keyword+"%", since).Scan(&n)
	return n, err
}

// Search matches the query against event id, rule description, and agent
// name, newest first, capped at limit.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
		SELECT event_id, rule_level, COALESCE(agent_name, ''), COALESCE(rule_description, ''), ts
		FROM logs
		WHERE event_id ILIKE $1 OR rule_description ILIKE $1 OR agent_name ILIKE $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, q, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.EventID, &r.Level, &r.Agent, &r.Description, &r.Timestamp); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}
