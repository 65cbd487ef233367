package correlation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRules struct {
	rules []Rule
}

func (f *fakeRules) Rules(_ context.Context) ([]Rule, error) { return f.rules, nil }

type fakeAlerts struct {
	created []Alert
}

func (f *fakeAlerts) CreateAlert(_ context.Context, a *Alert) error {
	f.created = append(f.created, *a)
	return nil
}

// fakeCounter mimics the store: it counts previously recorded logs that
// contain the keyword for the agent within the window.
type fakeCounter struct {
	logs []Event
}

func (f *fakeCounter) CountKeywordMatches(_ context.Context, agentID, keyword string, since time.Time) (int, error) {
	n := 0
	for _, ev := range f.logs {
		if ev.AgentID == agentID && strings.Contains(ev.FullLog, keyword) && ev.Timestamp.After(since) {
			n++
		}
	}
	return n, nil
}

type fakeQueue struct {
	enqueued []string
}

func (f *fakeQueue) Enqueue(subject, _, _ string) {
	f.enqueued = append(f.enqueued, subject)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func bruteForceRule() Rule {
	return Rule{
		ID:          1,
		Name:        "brute_force_ssh",
		Keyword:     "failed password",
		Threshold:   3,
		Window:      5 * time.Minute,
		Severity:    "high",
		Description: "Repeated SSH authentication failures.",
	}
}

// ingest simulates the real sequence: the event is stored first, then the
// engine evaluates it, so the count includes the event itself.
func ingest(t *testing.T, e *Engine, counter *fakeCounter, ev Event) {
	t.Helper()
	counter.logs = append(counter.logs, ev)
	require.NoError(t, e.Evaluate(context.Background(), ev))
}

func TestAlertFiresOnThresholdEvent(t *testing.T) {
	alerts := &fakeAlerts{}
	counter := &fakeCounter{}
	queue := &fakeQueue{}
	e := NewEngine(&fakeRules{rules: []Rule{bruteForceRule()}}, alerts, counter, queue, "soc@x.com", quietLogger())

	now := time.Now().UTC()
	for i := 0; i < 2; i++ {
		ingest(t, e, counter, Event{
			EventID:   fmt.Sprintf("E%d", i+1),
			AgentID:   "agent-1",
			FullLog:   "sshd: failed password for root",
			Timestamp: now,
		})
	}
	assert.Empty(t, alerts.created, "no alert below threshold")
	assert.Empty(t, queue.enqueued)

	ingest(t, e, counter, Event{
		EventID:   "E3",
		AgentID:   "agent-1",
		FullLog:   "sshd: failed password for root",
		Timestamp: now,
	})

	require.Len(t, alerts.created, 1)
	a := alerts.created[0]
	assert.Equal(t, "brute_force_ssh", a.Type)
	assert.Equal(t, []string{"E3"}, a.RelatedEvents)
	assert.Equal(t, "agent-1", a.AgentID)
	assert.Equal(t, "high", a.Severity)
	assert.Contains(t, a.Notes, "3 logs with keyword 'failed password'")

	require.Len(t, queue.enqueued, 1)
	assert.Contains(t, queue.enqueued[0], "brute_force_ssh")
}

func TestAlertRefiresOnEveryQualifyingEvent(t *testing.T) {
	alerts := &fakeAlerts{}
	counter := &fakeCounter{}
	e := NewEngine(&fakeRules{rules: []Rule{bruteForceRule()}}, alerts, counter, &fakeQueue{}, "soc@x.com", quietLogger())

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		ingest(t, e, counter, Event{
			EventID:   fmt.Sprintf("E%d", i+1),
			AgentID:   "agent-1",
			FullLog:   "failed password attempt",
			Timestamp: now,
		})
	}

	// Events 3, 4, and 5 each satisfy the threshold and each fire.
	require.Len(t, alerts.created, 3)
	assert.Equal(t, []string{"E3"}, alerts.created[0].RelatedEvents)
	assert.Equal(t, []string{"E4"}, alerts.created[1].RelatedEvents)
	assert.Equal(t, []string{"E5"}, alerts.created[2].RelatedEvents)
}

func TestKeywordMustMatchTriggeringEvent(t *testing.T) {
	alerts := &fakeAlerts{}
	counter := &fakeCounter{}
	e := NewEngine(&fakeRules{rules: []Rule{bruteForceRule()}}, alerts, counter, &fakeQueue{}, "soc@x.com", quietLogger())

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		ingest(t, e, counter, Event{
			EventID:   fmt.Sprintf("E%d", i+1),
			AgentID:   "agent-1",
			FullLog:   "user logged in",
			Timestamp: now,
		})
	}
	assert.Empty(t, alerts.created)
}

func TestEventsOutsideWindowDoNotCount(t *testing.T) {
	alerts := &fakeAlerts{}
	counter := &fakeCounter{}
	e := NewEngine(&fakeRules{rules: []Rule{bruteForceRule()}}, alerts, counter, &fakeQueue{}, "soc@x.com", quietLogger())

	now := time.Now().UTC()
	// Two stale events well outside the 5 minute window.
	counter.logs = append(counter.logs,
		Event{EventID: "old1", AgentID: "agent-1", FullLog: "failed password", Timestamp: now.Add(-time.Hour)},
		Event{EventID: "old2", AgentID: "agent-1", FullLog: "failed password", Timestamp: now.Add(-time.Hour)},
	)

	ingest(t, e, counter, Event{
		EventID: "E1", AgentID: "agent-1", FullLog: "failed password", Timestamp: now,
	})
	assert.Empty(t, alerts.created)
}

func TestRulesEvaluateIndependently(t *testing.T) {
	second := Rule{
		ID:        2,
		Name:      "password_spray",
		Keyword:   "password",
		Threshold: 1,
		Window:    5 * time.Minute,
		Severity:  "medium",
	}
	alerts := &fakeAlerts{}
	counter := &fakeCounter{}
	e := NewEngine(&fakeRules{rules: []Rule{bruteForceRule(), second}}, alerts, counter, &fakeQueue{}, "soc@x.com", quietLogger())

	ingest(t, e, counter, Event{
		EventID: "E1", AgentID: "agent-1", FullLog: "failed password", Timestamp: time.Now().UTC(),
	})

	// Only the threshold-1 rule fires; both matched the keyword.
	require.Len(t, alerts.created, 1)
	assert.Equal(t, "password_spray", alerts.created[0].Type)
}
