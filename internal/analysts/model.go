package analysts

// Role maps one escalation level to one notification address. Multiple
// rows may share a level; notifications to that level fan out to all of
// them.
type Role struct {
	ID    int64  `json:"id"`
	Level string `json:"level"`
	Email string `json:"email"`
}

// Tiers are the standard escalation levels used for ticket broadcast.
var Tiers = []string{"L1", "L2", "L3", "L4"}
