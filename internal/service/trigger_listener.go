package service

import (
	"context"

	"github.com/Atuoha/Ghost/internal/domain"
	"github.com/Atuoha/Ghost/internal/events"
	"github.com/Atuoha/Ghost/internal/observability"
	"github.com/Atuoha/Ghost/internal/queue"
	"go.uber.org/zap"
)

// TriggerListener bridges content events to the dispatch queue. It is the
// only place that decides whether an event becomes a send job. Both
// collaborators are injected and the listener does nothing until Start.
type TriggerListener struct {
	bus       *events.Bus
	publisher queue.Publisher
	logger    *zap.Logger

	unsubscribes []func()
}

func NewTriggerListener(bus *events.Bus, publisher queue.Publisher, logger *zap.Logger) *TriggerListener {
	return &TriggerListener{
		bus:       bus,
		publisher: publisher,
		logger:    logger,
	}
}

// Start subscribes to the content events. Calling Start twice doubles the
// subscriptions, so callers pair every Start with a Stop.
func (l *TriggerListener) Start() {
	l.unsubscribes = append(l.unsubscribes,
		l.bus.Subscribe(events.EmailCreated, l.onCreated),
		l.bus.Subscribe(events.EmailEdited, l.onEdited),
	)
}

func (l *TriggerListener) Stop() {
	for _, unsubscribe := range l.unsubscribes {
		unsubscribe()
	}
	l.unsubscribes = nil
}

// onCreated enqueues freshly created pending emails. Creations flagged as
// part of a content import never trigger live sends.
func (l *TriggerListener) onCreated(ctx context.Context, ev events.Event) {
	if ev.Email == nil || ev.Email.Status != domain.StatusPending {
		return
	}
	if ev.Context.Importing {
		l.logger.Info("skipping dispatch for imported content",
			zap.String("emailId", ev.Email.ID))
		return
	}

	l.enqueue(ctx, ev.Email.ID)
}

// onEdited enqueues exactly the retry transition: the status changed and
// moved from FAILED back to PENDING. Every other edit is ignored, including
// the pipeline's own PENDING -> SUBMITTING and SUBMITTING -> SUBMITTED
// transitions.
func (l *TriggerListener) onEdited(ctx context.Context, ev events.Event) {
	if ev.Email == nil || ev.PreviousStatus == nil {
		return
	}
	if *ev.PreviousStatus == ev.Email.Status {
		return
	}
	if ev.Email.Status != domain.StatusPending || *ev.PreviousStatus != domain.StatusFailed {
		return
	}

	l.enqueue(ctx, ev.Email.ID)
}

func (l *TriggerListener) enqueue(ctx context.Context, emailID string) {
	msg := queue.EmailMessage{EmailID: emailID}
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		msg.CorrelationID = correlationID
	}

	if err := l.publisher.Publish(ctx, queue.WorkQueue, msg); err != nil {
		// Bus handlers cannot return errors; the record stays PENDING and an
		// operator can re-trigger it.
		l.logger.Error("failed to enqueue dispatch job",
			zap.String("emailId", emailID),
			zap.Error(err))
		return
	}

	l.logger.Info("dispatch job enqueued", zap.String("emailId", emailID))
}
