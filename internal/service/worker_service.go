package service

import (
	"context"

	"github.com/Atuoha/Ghost/internal/observability"
	"github.com/Atuoha/Ghost/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WorkerService runs a fixed pool of queue consumers that feed dispatch jobs
// into the batch dispatcher.
type WorkerService struct {
	consumer    queue.Consumer
	dispatcher  *BatchDispatcher
	concurrency int
	logger      *zap.Logger
}

func NewWorkerService(consumer queue.Consumer, dispatcher *BatchDispatcher, concurrency int, logger *zap.Logger) *WorkerService {
	if concurrency < 1 {
		concurrency = 1
	}

	return &WorkerService{
		consumer:    consumer,
		dispatcher:  dispatcher,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Start blocks until the context is cancelled or a consumer fails.
func (w *WorkerService) Start(ctx context.Context) error {
	w.logger.Info("starting workers", zap.Int("concurrency", w.concurrency))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			return w.consumer.Consume(gctx, queue.WorkQueue, w.handle)
		})
	}

	return g.Wait()
}

func (w *WorkerService) handle(ctx context.Context, msg queue.EmailMessage) error {
	if msg.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, msg.CorrelationID)
	}
	return w.dispatcher.Run(ctx, msg.EmailID)
}
