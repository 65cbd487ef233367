package logs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"soclite/internal/correlation"
	"soclite/internal/errs"
	"soclite/internal/notify"
)

// highSeverityLevel is the rule level at which an event triggers a direct
// notification regardless of any correlation rule.
const highSeverityLevel = 10

type recordStore interface {
	Insert(ctx context.Context, rec *Record) error
}

type correlator interface {
	Evaluate(ctx context.Context, ev correlation.Event) error
}

// Ingestor normalizes raw payloads, persists them, and hands each stored
// record to the correlation engine before returning.
type Ingestor struct {
	store      recordStore
	engine     correlator
	queue      notify.Queuer
	notifyAddr string
	logger     *slog.Logger
}

func NewIngestor(store recordStore, engine correlator, queue notify.Queuer, notifyAddr string, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:      store,
		engine:     engine,
		queue:      queue,
		notifyAddr: notifyAddr,
		logger:     logger,
	}
}

// Ingest persists the payload as a Record and runs correlation. Events
// without an id or raw log text are rejected: nothing downstream can use
// them.
func (in *Ingestor) Ingest(ctx context.Context, p *Payload) (*Record, error) {
	if p.ID == "" {
		return nil, errs.Invalid("event id is required")
	}
	if p.FullLog == "" {
		return nil, errs.Invalid("full_log is required")
	}

	rec := normalize(p)
	if err := in.store.Insert(ctx, rec); err != nil {
		return nil, fmt.Errorf("store log: %w", err)
	}

	if err := in.engine.Evaluate(ctx, correlation.Event{
		EventID:   rec.EventID,
		AgentID:   rec.AgentID,
		FullLog:   rec.FullLog,
		Timestamp: rec.Timestamp,
	}); err != nil {
		// Correlation problems must not fail the ingest.
		in.logger.Error("correlation failed", "event", rec.EventID, "err", err)
	}

	if rec.RuleLevel >= highSeverityLevel {
		raw, _ := json.MarshalIndent(p, "", "  ")
		in.queue.Enqueue(
			fmt.Sprintf("High Severity Alert: %s", rec.EventID),
			string(raw),
			in.notifyAddr,
		)
	}
	return rec, nil
}

func normalize(p *Payload) *Record {
	ts, err := time.Parse(time.RFC3339, p.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	return &Record{
		EventID:         p.ID,
		Timestamp:       ts,
		RuleLevel:       p.Rule.Level,
		RuleDescription: p.Rule.Description,
		RuleID:          p.Rule.ID,
		MitreIDs:        strings.Join(p.Rule.Mitre.ID, ","),
		MitreTactics:    strings.Join(p.Rule.Mitre.Tactic, ","),
		MitreTechniques: strings.Join(p.Rule.Mitre.Technique, ","),
		AgentID:         p.Agent.ID,
		AgentName:       p.Agent.Name,
		ManagerName:     p.Manager.Name,
		FullLog:         p.FullLog,
		Location:        p.Location,
		Command:         p.Data.Command,
		SrcUser:         p.Data.SrcUser,
		DstUser:         p.Data.DstUser,
		TTY:             p.Data.TTY,
		PWD:             p.Data.PWD,
	}
}
