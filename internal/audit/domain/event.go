package domain

import "time"

// Event represents a security-relevant audit event.
type Event struct {
	ID        string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
