package correlation

import "time"

// Rule is an operator-authored detection: when at least Threshold events
// from one agent contain Keyword within Window, an Alert fires.
type Rule struct {
	ID          int64         `json:"id"`
	Name        string        `json:"rule_name"`
	Keyword     string        `json:"keyword"`
	Threshold   int           `json:"threshold"`
	Window      time.Duration `json:"window"`
	Severity    string        `json:"severity"`
	Description string        `json:"description"`
}

// Alert is a derived fact, append-only, created only by the Engine.
type Alert struct {
	ID            int64     `json:"id"`
	Type          string    `json:"correlation_type"`
	RelatedEvents []string  `json:"related_alerts"`
	Severity      string    `json:"severity"`
	AgentID       string    `json:"agent_id"`
	Notes         string    `json:"correlation_notes"`
	Timestamp     time.Time `json:"timestamp"`
}

// Event is the engine's view of a just-ingested log record.
type Event struct {
	EventID   string
	AgentID   string
	FullLog   string
	Timestamp time.Time
}
