package domain

import "time"

// Agent is a console user who triages and answers tickets.
type Agent struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
