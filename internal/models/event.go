package models

import "time"

// Event is an audit log entry for an operator action.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "userexport.export", "userexport.denied"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	ActorID   *int64    `json:"actorId,omitempty"` // Nullable for anonymous callers
	CreatedAt time.Time `json:"createdAt"`
}
