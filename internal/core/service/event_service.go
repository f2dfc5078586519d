package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/taskhive/task-tracker/internal/core/domain"
	"github.com/taskhive/task-tracker/internal/core/ports"
)

type eventService struct {
	repo ports.EventRepository
	log  zerolog.Logger
}

// NewEventService returns the activity-trail recorder.
func NewEventService(repo ports.EventRepository, log zerolog.Logger) ports.EventService {
	return &eventService{repo: repo, log: log}
}

// Record persists a single task activity event.
func (s *eventService) Record(ctx context.Context, in ports.TaskEventInput) error {
	event := &domain.TaskEvent{
		TaskID:    in.TaskID,
		Status:    domain.TaskStatus(in.Status),
		Actor:     in.Actor,
		Timestamp: in.Timestamp,
		Note:      in.Note,
	}

	if err := s.repo.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("record event: %w", err)
	}

	s.log.Debug().
		Str("task_id", in.TaskID).
		Str("status", in.Status).
		Str("note", in.Note).
		Msg("task event recorded")

	return nil
}
