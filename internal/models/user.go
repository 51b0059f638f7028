package models

import "time"

// User represents an account row in the user table.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	RealName     string    `json:"realName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	Registration time.Time `json:"registration"`
	Touched      time.Time `json:"touched"`
	Groups       []string  `json:"groups,omitempty"`
}
