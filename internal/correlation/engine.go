package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"soclite/internal/notify"
)

type ruleSource interface {
	Rules(ctx context.Context) ([]Rule, error)
}

type alertSink interface {
	CreateAlert(ctx context.Context, a *Alert) error
}

// eventCounter reports how many stored log records for the agent contain
// the keyword at or after since. The just-inserted event is already in the
// store when the engine runs, so it is part of the count.
type eventCounter interface {
	CountKeywordMatches(ctx context.Context, agentID, keyword string, since time.Time) (int, error)
}

// Engine evaluates every rule against each newly ingested event. Rules are
// independent: several may fire for one event, and a rule keeps firing on
// every later event that still satisfies its threshold.
type Engine struct {
	rules  ruleSource
	alerts alertSink
	counts eventCounter
	queue  notify.Queuer
	// notifyAddr receives correlation notifications (the SOC inbox).
	notifyAddr string
	logger     *slog.Logger

	// Serializes the count-then-insert sequence per (agent, rule) so two
	// concurrent events cannot double-fire or under-count each other.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEngine(rules ruleSource, alerts alertSink, counts eventCounter, queue notify.Queuer, notifyAddr string, logger *slog.Logger) *Engine {
	return &Engine{
		rules:      rules,
		alerts:     alerts,
		counts:     counts,
		queue:      queue,
		notifyAddr: notifyAddr,
		logger:     logger,
		locks:      map[string]*sync.Mutex{},
	}
}

// Evaluate runs all rules against ev. A failing rule is logged and skipped;
// the others still run.
func (e *Engine) Evaluate(ctx context.Context, ev Event) error {
	rules, err := e.rules.Rules(ctx)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	for _, rule := range rules {
		if !strings.Contains(ev.FullLog, rule.Keyword) {
			continue
		}
		if err := e.evaluateRule(ctx, rule, ev); err != nil {
			e.logger.Error("rule evaluation failed", "rule", rule.Name, "err", err)
		}
	}
	return nil
}

func (e *Engine) evaluateRule(ctx context.Context, rule Rule, ev Event) error {
	unlock := e.lock(ev.AgentID, rule.ID)
	defer unlock()

	since := time.Now().UTC().Add(-rule.Window)
	count, err := e.counts.CountKeywordMatches(ctx, ev.AgentID, rule.Keyword, since)
	if err != nil {
		return fmt.Errorf("count matches: %w", err)
	}
	if count < rule.Threshold {
		return nil
	}

	alert := &Alert{
		Type:          rule.Name,
		RelatedEvents: []string{ev.EventID},
		Severity:      rule.Severity,
		AgentID:       ev.AgentID,
		Notes:         fmt.Sprintf("%d logs with keyword '%s' within %s.", count, rule.Keyword, rule.Window),
	}
	if err := e.alerts.CreateAlert(ctx, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	e.logger.Info("correlated alert created",
		"rule", rule.Name, "agent", ev.AgentID, "count", count)

	e.queue.Enqueue(
		fmt.Sprintf("Correlation Alert: %s", rule.Name),
		fmt.Sprintf("%s\n\nDetected %d logs for agent %s in %s.",
			rule.Description, count, ev.AgentID, rule.Window),
		e.notifyAddr,
	)
	return nil
}

func (e *Engine) lock(agentID string, ruleID int64) func() {
	key := fmt.Sprintf("%s/%d", agentID, ruleID)
	e.mu.Lock()
	m, ok := e.locks[key]
	if !ok {
		m = &sync.Mutex{}
		e.locks[key] = m
	}
	e.mu.Unlock()
	m.Lock()
	return m.Unlock
}
