package queue

import "context"

// Publisher enqueues dispatch jobs. Fire-and-forget from the caller's view;
// the broker provides at-least-once delivery to the worker.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg EmailMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg EmailMessage) error

// Consumer consumes dispatch jobs from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

const (
	// WorkQueue is the single bulk email dispatch queue.
	WorkQueue = "bulk-email"

	// DLQ receives messages rejected as malformed.
	DLQ = "dlq.bulk-email"
)
