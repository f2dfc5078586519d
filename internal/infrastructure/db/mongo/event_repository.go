package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskhive/task-tracker/internal/core/domain"
)

const eventsCollection = "task_events"

// EventRepository appends task activity events to the task_events collection.
type EventRepository struct {
	coll *mongo.Collection
}

func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{coll: db.Collection(eventsCollection)}
}

type mongoEvent struct {
	TaskID    string    `bson:"task_id"`
	Status    string    `bson:"status"`
	Actor     string    `bson:"actor"`
	Timestamp time.Time `bson:"timestamp"`
	Note      string    `bson:"note,omitempty"`
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.TaskEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, mongoEvent{
		TaskID:    event.TaskID,
		Status:    string(event.Status),
		Actor:     event.Actor,
		Timestamp: event.Timestamp.UTC(),
		Note:      event.Note,
	})
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// EnsureIndexes creates the per-task event lookup index.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	return err
}
