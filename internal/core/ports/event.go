package ports

import (
	"context"
	"time"

	"github.com/taskhive/task-tracker/internal/core/domain"
)

// TaskEventInput is the DTO handed from the task service to the activity
// recorder.
type TaskEventInput struct {
	TaskID    string
	Status    string
	Actor     string
	Timestamp time.Time
	Note      string
}

// EventService records task activity events.
type EventService interface {
	Record(ctx context.Context, event TaskEventInput) error
}

// EventRecorder is the fire-and-forget enqueue side used by the task
// service. The queue dispatcher implements it.
type EventRecorder interface {
	Enqueue(event TaskEventInput)
}

// EventRepository persists activity events.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.TaskEvent) error
}
