package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// MinDescriptionLen is the minimum number of characters in a task description.
const MinDescriptionLen = 5

// ParseStatus normalises a wire status value to a TaskStatus. An empty value
// maps to StatusTodo: no mutation path may leave a task without a status.
// Matching is case-insensitive so that "DONE" and "done" are the same state.
func ParseStatus(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return StatusTodo, nil
	case string(StatusTodo):
		return StatusTodo, nil
	case string(StatusInProgress):
		return StatusInProgress, nil
	case string(StatusDone):
		return StatusDone, nil
	default:
		return "", ErrInvalidStatus
	}
}

// ValidateDescription enforces the description invariant: non-blank and at
// least MinDescriptionLen characters.
func ValidateDescription(d string) error {
	if strings.TrimSpace(d) == "" || utf8.RuneCountInString(d) < MinDescriptionLen {
		return ErrInvalidDescription
	}
	return nil
}

// Task is the tracked resource. ID and OwnerID are assigned on creation and
// are never taken from a client payload afterwards.
type Task struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	OwnerID     string     `json:"owner"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
