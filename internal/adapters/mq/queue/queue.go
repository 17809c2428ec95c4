// Package queue holds run requests between the HTTP API and the run worker.
//
// The queue is bounded and never blocks a caller: when it is full the request
// is refused and the caller answers with backpressure.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NPS-SFAN/PCM-ClimateVA-Envelope/pkg/metrics"
)

// Default queue configuration constants.
const defaultQueueCapacity = 1

// Request asks for one pipeline run.
type Request struct {
	ID          string    `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a request. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, r Request) bool

	// Dequeue returns a channel that will receive requests as they become available.
	// The channel will be closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Request

	// Len returns the current number of queued requests.
	Len(ctx context.Context) int

	// Close stops accepting requests and closes the dequeue channel once drained.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	requests chan Request
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.requests = make(chan Request, q.capacity)
	metrics.UpdateRunQueueSize(0)
	return q
}

// Schedule enqueues a new request stamped with a fresh id.
func (q *InMemoryQueue) Schedule(ctx context.Context) (Request, bool) {
	r := Request{ID: uuid.NewString(), RequestedAt: time.Now().UTC()}
	return r, q.Enqueue(ctx, r)
}

// Enqueue adds a request to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Request) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordRunEnqueue("closed")
		return false
	}

	select {
	case q.requests <- r:
		metrics.RecordRunEnqueue("accepted")
		metrics.UpdateRunQueueSize(len(q.requests))
		return true
	case <-ctx.Done():
		metrics.RecordRunEnqueue("cancelled")
		return false
	default:
		metrics.RecordRunEnqueue("full")
		return false
	}
}

// Dequeue returns a channel that will receive requests as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Request {
	out := make(chan Request)
	go func() {
		defer close(out)
		for r := range q.requests {
			metrics.UpdateRunQueueSize(len(q.requests))
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued requests.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.requests)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.requests)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
