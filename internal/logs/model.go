package logs

import "time"

// Record is an ingested event, immutable once written.
type Record struct {
	ID              int64     `json:"id"`
	EventID         string    `json:"event_id"`
	Timestamp       time.Time `json:"timestamp"`
	RuleLevel       int       `json:"rule_level"`
	RuleDescription string    `json:"rule_description"`
	RuleID          string    `json:"rule_id"`
	MitreIDs        string    `json:"mitre_ids"`
	MitreTactics    string    `json:"mitre_tactics"`
	MitreTechniques string    `json:"mitre_techniques"`
	AgentID         string    `json:"agent_id"`
	AgentName       string    `json:"agent_name"`
	ManagerName     string    `json:"manager_name"`
	FullLog         string    `json:"full_log"`
	Location        string    `json:"location"`
	Command         string    `json:"command"`
	SrcUser         string    `json:"srcuser"`
	DstUser         string    `json:"dstuser"`
	TTY             string    `json:"tty"`
	PWD             string    `json:"pwd"`
	CreatedAt       time.Time `json:"created_at"`
}

// Payload is the raw alert shape produced by the endpoint agent.
type Payload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Rule      struct {
		Level       int    `json:"level"`
		Description string `json:"description"`
		ID          string `json:"id"`
		Mitre       struct {
			ID        []string `json:"id"`
			Tactic    []string `json:"tactic"`
			Technique []string `json:"technique"`
		} `json:"mitre"`
	} `json:"rule"`
	Agent struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"agent"`
	Manager struct {
		Name string `json:"name"`
	} `json:"manager"`
	FullLog  string `json:"full_log"`
	Location string `json:"location"`
	Data     struct {
		Command string `json:"command"`
		SrcUser string `json:"srcuser"`
		DstUser string `json:"dstuser"`
		TTY     string `json:"tty"`
		PWD     string `json:"pwd"`
	} `json:"data"`
}

// SearchResult is the trimmed row shape returned by log search.
type SearchResult struct {
	EventID     string    `json:"event_id"`
	Level       int       `json:"level"`
	Agent       string    `json:"agent"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}
