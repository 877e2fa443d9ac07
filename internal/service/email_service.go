package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Atuoha/Ghost/internal/composer"
	"github.com/Atuoha/Ghost/internal/domain"
	"github.com/Atuoha/Ghost/internal/events"
	"github.com/Atuoha/Ghost/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EmailService owns the dispatch record lifecycle: idempotent creation for a
// post, reads, and retry of failed dispatches. It emits bus events so the
// trigger listener can enqueue the actual sending.
type EmailService struct {
	emails   repository.EmailRepository
	batches  repository.EmailBatchRepository
	posts    repository.PostRepository
	members  repository.MemberRepository
	composer composer.Composer
	bus      *events.Bus
	logger   *zap.Logger
}

func NewEmailService(
	emails repository.EmailRepository,
	batches repository.EmailBatchRepository,
	posts repository.PostRepository,
	members repository.MemberRepository,
	postComposer composer.Composer,
	bus *events.Bus,
	logger *zap.Logger,
) *EmailService {
	return &EmailService{
		emails:   emails,
		batches:  batches,
		posts:    posts,
		members:  members,
		composer: postComposer,
		bus:      bus,
		logger:   logger,
	}
}

// CreateForPost creates the single dispatch record for a post. Repeat calls
// for the same post return the existing record unchanged regardless of its
// status. A post with no eligible recipients gets no record and nil is
// returned.
func (s *EmailService) CreateForPost(ctx context.Context, postID string, emitCtx events.EmitContext) (*domain.Email, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, fmt.Errorf("%w: post id is required", domain.ErrValidation)
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post %s: %w", postID, err)
	}

	existing, err := s.emails.GetByPostID(ctx, postID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email for post %s: %w", postID, err)
	}

	filter := repository.MemberFilter{
		Subscribed: true,
		PaidOnly:   post.Visibility.PaidOnly(),
	}
	recipientCount, err := s.members.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count eligible members: %w", err)
	}
	if recipientCount == 0 {
		s.logger.Info("no eligible recipients, skipping email creation",
			zap.String("postId", postID))
		return nil, nil
	}

	// Content is snapshotted at creation time in preview form so later post
	// edits do not change what gets sent.
	template, _, err := s.composer.Serialize(ctx, post, true)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize post %s: %w", postID, err)
	}

	email := &domain.Email{
		ID:             uuid.NewString(),
		PostID:         postID,
		Status:         domain.StatusPending,
		RecipientCount: int(recipientCount),
		Subject:        template.Subject,
		HTML:           template.HTML,
		Plaintext:      template.Plaintext,
	}
	if err := email.Validate(); err != nil {
		return nil, err
	}

	if err := s.emails.Create(ctx, email); err != nil {
		// A concurrent create won the race on the unique post index. The
		// record that exists is the answer, not an error.
		if isUniqueViolationError(err) {
			winner, lookupErr := s.emails.GetByPostID(ctx, postID)
			if lookupErr != nil {
				return nil, fmt.Errorf("failed to load email after conflict for post %s: %w", postID, lookupErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("failed to create email for post %s: %w", postID, err)
	}

	s.logger.Info("email created",
		zap.String("emailId", email.ID),
		zap.String("postId", postID),
		zap.Int("recipientCount", email.RecipientCount),
		zap.Bool("importing", emitCtx.Importing))

	s.bus.Emit(ctx, events.Event{
		Name:    events.EmailCreated,
		Email:   email,
		Context: emitCtx,
	})

	return email, nil
}

func (s *EmailService) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: email id is required", domain.ErrValidation)
	}
	return s.emails.GetByID(ctx, id)
}

func (s *EmailService) GetByPostID(ctx context.Context, postID string) (*domain.Email, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, fmt.Errorf("%w: post id is required", domain.ErrValidation)
	}
	return s.emails.GetByPostID(ctx, postID)
}

func (s *EmailService) List(ctx context.Context, params repository.ListEmailParams) ([]domain.Email, int64, error) {
	return s.emails.List(ctx, params)
}

// ListBatches returns the audit batches of one dispatch in creation order.
func (s *EmailService) ListBatches(ctx context.Context, emailID string) ([]domain.EmailBatch, error) {
	if strings.TrimSpace(emailID) == "" {
		return nil, fmt.Errorf("%w: email id is required", domain.ErrValidation)
	}

	if _, err := s.emails.GetByID(ctx, emailID); err != nil {
		return nil, err
	}

	return s.batches.ListByEmailID(ctx, emailID)
}

// Retry resets a dispatch to PENDING and emits an edit event carrying the
// prior status. The reset itself is unconditional; only the FAILED -> PENDING
// transition makes the trigger listener enqueue a new send. The whole current
// audience is resolved fresh at send time, so members who already got the
// email on a partially failed run may receive it again.
func (s *EmailService) Retry(ctx context.Context, id string) (*domain.Email, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: email id is required", domain.ErrValidation)
	}

	email, err := s.emails.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := email.Status
	if err := s.emails.UpdateStatus(ctx, id, domain.StatusPending); err != nil {
		return nil, fmt.Errorf("failed to reset email %s for retry: %w", id, err)
	}
	email.Status = domain.StatusPending

	s.logger.Info("email retry requested",
		zap.String("emailId", id),
		zap.String("previousStatus", previous.String()))

	s.bus.Emit(ctx, events.Event{
		Name:           events.EmailEdited,
		Email:          email,
		PreviousStatus: &previous,
	})

	return email, nil
}

func isUniqueViolationError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
