package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/taskhive/task-tracker/internal/api/metrics"
	"github.com/taskhive/task-tracker/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher routes task activity events to a fixed set of workers using
// consistent hashing on the task id, guaranteeing per-task event ordering.
// It implements ports.EventRecorder.
type Dispatcher struct {
	workers []chan ports.TaskEventInput
	service ports.EventService
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.EventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.TaskEventInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.TaskEventInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an event to the worker responsible for its task id. The
// trail is advisory: when a shard's buffer is full the event is dropped and
// counted instead of blocking the request path.
func (d *Dispatcher) Enqueue(event ports.TaskEventInput) {
	select {
	case d.workers[d.shardIndex(event.TaskID)] <- event:
	default:
		metrics.TaskEventErrorsTotal.WithLabelValues("queue_full").Inc()
		d.log.Warn().Str("task_id", event.TaskID).Msg("event queue full, event dropped")
	}
}

// shardIndex maps a task id deterministically to a worker index.
func (d *Dispatcher) shardIndex(taskID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.TaskEventInput) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.service.Record(ctx, event); err != nil {
				metrics.TaskEventErrorsTotal.WithLabelValues("record_failed").Inc()
				d.log.Error().Err(err).
					Str("task_id", event.TaskID).
					Int("worker_id", id).
					Msg("event recording failed")
				continue
			}
			metrics.TaskEventsRecordedTotal.WithLabelValues(event.Status).Inc()
		}
	}
}
