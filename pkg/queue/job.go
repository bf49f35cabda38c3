package queue

import "context"

// Job is a registered consumer for one message type. Workers dispatch each
// dequeued message to the job whose Type matches; a job must be registered
// before its type can be enqueued.
type Job interface {
	// Name identifies the job in logs.
	Name() string

	// Type is the message type this job consumes.
	Type() string

	// Handle processes one message. A returned error sends the message to
	// the retry queue until the retry limit is hit.
	Handle(ctx context.Context, payload interface{}) error
}
