package domain

import "time"

// TaskEvent is one entry in the append-only task activity trail.
type TaskEvent struct {
	TaskID    string
	Status    TaskStatus
	Actor     string
	Timestamp time.Time
	Note      string
}
