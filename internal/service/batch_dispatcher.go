package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Atuoha/Ghost/internal/composer"
	"github.com/Atuoha/Ghost/internal/domain"
	"github.com/Atuoha/Ghost/internal/observability"
	"github.com/Atuoha/Ghost/internal/provider"
	"github.com/Atuoha/Ghost/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchDispatcher executes one dispatch job end to end: claim the pending
// email, snapshot the audience into audit batches, render and personalize the
// content, hand it to the delivery provider, and write the final state back.
type BatchDispatcher struct {
	emails   repository.EmailRepository
	batches  repository.EmailBatchRepository
	posts    repository.PostRepository
	members  repository.MemberRepository
	composer composer.Composer
	provider provider.BulkProvider
	metrics  *observability.Metrics
	logger   *zap.Logger

	batchSize      int
	errorMaxLength int
}

func NewBatchDispatcher(
	emails repository.EmailRepository,
	batches repository.EmailBatchRepository,
	posts repository.PostRepository,
	members repository.MemberRepository,
	postComposer composer.Composer,
	bulkProvider provider.BulkProvider,
	metrics *observability.Metrics,
	logger *zap.Logger,
	batchSize int,
	errorMaxLength int,
) *BatchDispatcher {
	if batchSize < 1 {
		batchSize = 1000
	}
	if errorMaxLength < 1 {
		errorMaxLength = 2000
	}

	return &BatchDispatcher{
		emails:         emails,
		batches:        batches,
		posts:          posts,
		members:        members,
		composer:       postComposer,
		provider:       bulkProvider,
		metrics:        metrics,
		logger:         logger,
		batchSize:      batchSize,
		errorMaxLength: errorMaxLength,
	}
}

// Run processes one dispatch job. A job for a non-pending email is a no-op:
// duplicate broker deliveries and already-claimed emails drop out here
// without touching the record. Every failure after the record is loaded is
// written into the record as a FAILED outcome rather than bounced back to
// the broker; the retry operation is the recovery path. Only failing to load
// the record at all returns an error for redelivery.
func (d *BatchDispatcher) Run(ctx context.Context, emailID string) error {
	logger := observability.WithContextLogger(d.logger, ctx).With(zap.String("emailId", emailID))

	email, err := d.emails.GetByID(ctx, emailID)
	if errors.Is(err, domain.ErrNotFound) {
		// Nothing to redeliver to; requeueing would loop forever.
		logger.Warn("dispatch job references missing email, dropping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load email %s: %w", emailID, err)
	}

	if email.Status != domain.StatusPending {
		logger.Info("email is not pending, skipping dispatch",
			zap.String("status", email.Status.String()))
		return nil
	}

	post, err := d.posts.GetByID(ctx, email.PostID)
	if err != nil {
		resolveErr := fmt.Errorf("failed to load post %s: %w", email.PostID, err)
		logger.Error("dispatch failed", zap.Error(resolveErr))
		d.finalize(ctx, logger, email, dispatchOutcome{
			Status: domain.StatusFailed,
			Error:  resolveErr.Error(),
		})
		return nil
	}

	audience, err := d.members.List(ctx, repository.MemberFilter{
		Subscribed: true,
		PaidOnly:   post.Visibility.PaidOnly(),
	})
	if err != nil {
		resolveErr := fmt.Errorf("failed to resolve audience: %w", err)
		logger.Error("dispatch failed", zap.Error(resolveErr))
		d.finalize(ctx, logger, email, dispatchOutcome{
			Status: domain.StatusFailed,
			Error:  resolveErr.Error(),
		})
		return nil
	}
	if len(audience) == 0 {
		logger.Warn("audience is empty, leaving email untouched")
		return nil
	}

	claimed, err := d.emails.MarkSubmitting(ctx, emailID)
	if err != nil {
		claimErr := fmt.Errorf("failed to claim email %s: %w", emailID, err)
		logger.Error("dispatch failed", zap.Error(claimErr))
		d.finalize(ctx, logger, email, dispatchOutcome{
			Status: domain.StatusFailed,
			Error:  claimErr.Error(),
		})
		return nil
	}
	if !claimed {
		logger.Info("email already claimed by another run, skipping")
		return nil
	}

	d.metrics.IncDispatchInFlight()
	defer d.metrics.DecDispatchInFlight()

	results, sendErr := d.send(ctx, email, post, audience)
	if sendErr != nil {
		logger.Error("dispatch failed before provider accepted anything", zap.Error(sendErr))
		d.finalize(ctx, logger, email, dispatchOutcome{
			Status: domain.StatusFailed,
			Error:  sendErr.Error(),
		})
		return nil
	}

	d.recordBatchMetrics(results)
	d.finalize(ctx, logger, email, aggregateResults(results))
	return nil
}

func (d *BatchDispatcher) recordBatchMetrics(results []provider.BatchResult) {
	var succeeded, failed int
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	d.metrics.AddProviderBatches("success", succeeded)
	d.metrics.AddProviderBatches("failure", failed)
}

// send snapshots the audience, renders the content, and pushes it through the
// provider. The persisted batches partition the snapshot for audit at the
// configured size; the provider chunks the wire traffic at its own limit.
func (d *BatchDispatcher) send(
	ctx context.Context,
	email *domain.Email,
	post *domain.Post,
	audience []domain.Member,
) ([]provider.BatchResult, error) {
	template, replacements, err := d.composer.Serialize(ctx, post, false)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize post %s: %w", post.ID, err)
	}

	msg := provider.Message{
		Subject:   template.Subject,
		HTML:      template.HTML,
		Plaintext: template.Plaintext,
	}
	for _, r := range replacements {
		placeholder := d.provider.Placeholder(r.ID)
		msg.HTML = strings.ReplaceAll(msg.HTML, r.Token, placeholder)
		msg.Plaintext = strings.ReplaceAll(msg.Plaintext, r.Token, placeholder)
	}

	recipients := make([]string, 0, len(audience))
	variables := make(map[string]map[string]string, len(audience))

	for start := 0; start < len(audience); start += d.batchSize {
		end := min(start+d.batchSize, len(audience))
		chunk := audience[start:end]

		batch := &domain.EmailBatch{
			ID:          uuid.NewString(),
			EmailID:     email.ID,
			MemberCount: len(chunk),
		}
		if err := d.batches.Create(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to create email batch: %w", err)
		}

		rows := make([]*domain.EmailRecipient, 0, len(chunk))
		for i := range chunk {
			member := chunk[i]
			rows = append(rows, &domain.EmailRecipient{
				ID:          uuid.NewString(),
				EmailID:     email.ID,
				BatchID:     batch.ID,
				MemberID:    member.ID,
				MemberUUID:  member.UUID,
				MemberEmail: member.Email,
				MemberName:  member.Name,
			})

			recipients = append(recipients, member.Email)
			if len(replacements) > 0 {
				values := make(map[string]string, len(replacements))
				for _, r := range replacements {
					values[r.ID] = r.ValueFor(&member)
				}
				variables[member.Email] = values
			}
		}
		if err := d.batches.CreateRecipients(ctx, rows); err != nil {
			return nil, fmt.Errorf("failed to snapshot recipients: %w", err)
		}
	}

	start := time.Now()
	results, err := d.provider.Send(ctx, msg, recipients, variables)
	d.metrics.ObserveSendDuration(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("provider send failed: %w", err)
	}

	return results, nil
}

// dispatchOutcome is the aggregated result of one run, ready for the single
// final write.
type dispatchOutcome struct {
	Status    domain.Status
	Error     string
	ErrorData string
	Meta      string
}

func (d *BatchDispatcher) finalize(ctx context.Context, logger *zap.Logger, email *domain.Email, outcome dispatchOutcome) {
	params := repository.CompleteEmailParams{
		Status:      outcome.Status,
		SubmittedAt: time.Now().UTC(),
	}
	if outcome.Error != "" {
		errText := truncate(outcome.Error, d.errorMaxLength)
		params.Error = &errText
	}
	if outcome.ErrorData != "" {
		errorData := outcome.ErrorData
		params.ErrorData = &errorData
	}
	if outcome.Meta != "" {
		meta := outcome.Meta
		params.Meta = &meta
	}

	switch outcome.Status {
	case domain.StatusSubmitted:
		d.metrics.IncEmailSubmitted()
	case domain.StatusFailed:
		d.metrics.IncEmailFailed("provider")
	}

	// The provider already accepted or rejected the batches; losing the final
	// write must not crash the worker or requeue the job.
	if err := d.emails.Complete(ctx, email.ID, params); err != nil {
		logger.Error("failed to write final dispatch state",
			zap.String("status", outcome.Status.String()),
			zap.Error(err))
		return
	}

	logger.Info("dispatch finished", zap.String("status", outcome.Status.String()))
}

// aggregateResults folds the per-batch provider outcomes into the final
// record state. One accepted batch is enough to count the dispatch as
// submitted; the failures are still kept in errorData for inspection.
func aggregateResults(results []provider.BatchResult) dispatchOutcome {
	var succeeded, failed []provider.BatchResult
	for _, r := range results {
		if r.Succeeded() {
			succeeded = append(succeeded, r)
		} else {
			failed = append(failed, r)
		}
	}

	outcome := dispatchOutcome{Status: domain.StatusFailed}
	if len(succeeded) > 0 {
		outcome.Status = domain.StatusSubmitted
	}

	if len(failed) > 0 {
		outcome.Error = failed[0].Err.Message
		if data, err := json.Marshal(failed); err == nil {
			outcome.ErrorData = string(data)
		}
	}
	if len(succeeded) > 0 {
		if meta, err := json.Marshal(succeeded); err == nil {
			outcome.Meta = string(meta)
		}
	}

	return outcome
}

func truncate(s string, limit int) string {
	if limit < 1 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
