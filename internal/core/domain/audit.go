package domain

import "time"

// AuditEntry records an admin or security relevant action.
type AuditEntry struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actorId"`
	Action    string    `json:"action"`
	TargetID  string    `json:"targetId"`
	Detail    string    `json:"detail"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	ActorID  string
	Action   string
	Since    time.Time
	Until    time.Time
	Page     int
	PageSize int
}
