package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Atuoha/Ghost/internal/domain"
	"github.com/Atuoha/Ghost/internal/provider"
	"github.com/Atuoha/Ghost/internal/queue"
	"github.com/Atuoha/Ghost/internal/repository"
)

type fakeEmailRepo struct {
	mu     sync.Mutex
	emails map[string]*domain.Email
	byPost map[string]string

	// concurrentWinner simulates a second writer winning the unique index
	// race: Create fails with a duplicate key error and subsequent post
	// lookups return the winner.
	concurrentWinner *domain.Email
	createAttempted  bool

	claimDenied bool
	completeErr error

	completed []repository.CompleteEmailParams
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{
		emails: make(map[string]*domain.Email),
		byPost: make(map[string]string),
	}
}

func (r *fakeEmailRepo) put(e domain.Email) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := e
	r.emails[e.ID] = &copied
	r.byPost[e.PostID] = e.ID
}

func (r *fakeEmailRepo) get(id string) *domain.Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.emails[id]; ok {
		copied := *e
		return &copied
	}
	return nil
}

func (r *fakeEmailRepo) Create(ctx context.Context, e *domain.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.createAttempted = true
	if r.concurrentWinner != nil {
		return errors.New(`ERROR: duplicate key value violates unique constraint "idx_emails_post_id" (SQLSTATE 23505)`)
	}
	if _, exists := r.byPost[e.PostID]; exists {
		return errors.New(`ERROR: duplicate key value violates unique constraint "idx_emails_post_id" (SQLSTATE 23505)`)
	}

	copied := *e
	r.emails[e.ID] = &copied
	r.byPost[e.PostID] = e.ID
	return nil
}

func (r *fakeEmailRepo) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEmailRepo) GetByPostID(ctx context.Context, postID string) (*domain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.concurrentWinner != nil && r.createAttempted {
		copied := *r.concurrentWinner
		return &copied, nil
	}

	id, ok := r.byPost[postID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *r.emails[id]
	return &copied, nil
}

func (r *fakeEmailRepo) List(ctx context.Context, params repository.ListEmailParams) ([]domain.Email, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	emails := make([]domain.Email, 0, len(r.emails))
	for _, e := range r.emails {
		emails = append(emails, *e)
	}
	return emails, int64(len(emails)), nil
}

func (r *fakeEmailRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.emails[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	return nil
}

func (r *fakeEmailRepo) MarkSubmitting(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claimDenied {
		return false, nil
	}

	e, ok := r.emails[id]
	if !ok || e.Status != domain.StatusPending {
		return false, nil
	}
	e.Status = domain.StatusSubmitting
	return true, nil
}

func (r *fakeEmailRepo) Complete(ctx context.Context, id string, params repository.CompleteEmailParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.completeErr != nil {
		return r.completeErr
	}

	e, ok := r.emails[id]
	if !ok {
		return domain.ErrNotFound
	}

	e.Status = params.Status
	e.Error = params.Error
	e.ErrorData = params.ErrorData
	e.Meta = params.Meta
	submittedAt := params.SubmittedAt
	e.SubmittedAt = &submittedAt

	r.completed = append(r.completed, params)
	return nil
}

type fakeBatchRepo struct {
	mu         sync.Mutex
	batches    []domain.EmailBatch
	recipients []domain.EmailRecipient
	createErr  error
}

func (r *fakeBatchRepo) Create(ctx context.Context, b *domain.EmailBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	r.batches = append(r.batches, *b)
	return nil
}

func (r *fakeBatchRepo) CreateRecipients(ctx context.Context, recipients []*domain.EmailRecipient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, recipient := range recipients {
		r.recipients = append(r.recipients, *recipient)
	}
	return nil
}

func (r *fakeBatchRepo) ListByEmailID(ctx context.Context, emailID string) ([]domain.EmailBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var batches []domain.EmailBatch
	for _, b := range r.batches {
		if b.EmailID == emailID {
			batches = append(batches, b)
		}
	}
	return batches, nil
}

func (r *fakeBatchRepo) CountRecipients(ctx context.Context, batchID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, recipient := range r.recipients {
		if recipient.BatchID == batchID {
			count++
		}
	}
	return count, nil
}

type fakePostRepo struct {
	mu    sync.Mutex
	posts map[string]*domain.Post
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*domain.Post)}
}

func (r *fakePostRepo) put(p domain.Post) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := p
	r.posts[p.ID] = &copied
}

func (r *fakePostRepo) Create(ctx context.Context, p *domain.Post) error {
	r.put(*p)
	return nil
}

func (r *fakePostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

type fakeMemberRepo struct {
	mu      sync.Mutex
	members []domain.Member

	lastFilter *repository.MemberFilter
	getErr     error
	updateErr  error
}

func (r *fakeMemberRepo) eligible(filter repository.MemberFilter) []domain.Member {
	var out []domain.Member
	for _, m := range r.members {
		if m.Subscribed != filter.Subscribed {
			continue
		}
		if filter.PaidOnly && m.Status != domain.MemberStatusPaid {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *fakeMemberRepo) Count(ctx context.Context, filter repository.MemberFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = &filter
	return int64(len(r.eligible(filter))), nil
}

func (r *fakeMemberRepo) List(ctx context.Context, filter repository.MemberFilter) ([]domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = &filter
	return r.eligible(filter), nil
}

func (r *fakeMemberRepo) GetByUUID(ctx context.Context, uuid string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getErr != nil {
		return nil, r.getErr
	}

	for i := range r.members {
		if r.members[i].UUID == uuid {
			copied := r.members[i]
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeMemberRepo) Update(ctx context.Context, m *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return r.updateErr
	}

	for i := range r.members {
		if r.members[i].ID == m.ID {
			r.members[i] = *m
			return nil
		}
	}
	return domain.ErrNotFound
}

type providerCall struct {
	msg        provider.Message
	recipients []string
	variables  map[string]map[string]string
}

type fakeProvider struct {
	mu      sync.Mutex
	calls   []providerCall
	results []provider.BatchResult
	err     error
}

func (p *fakeProvider) Send(ctx context.Context, msg provider.Message, recipients []string, variables map[string]map[string]string) ([]provider.BatchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, providerCall{msg: msg, recipients: recipients, variables: variables})
	if p.err != nil {
		return nil, p.err
	}
	if p.results != nil {
		return p.results, nil
	}

	return []provider.BatchResult{{
		BatchID:    "transport-1",
		Recipients: len(recipients),
		StatusCode: 200,
		ProviderID: "msg-1",
	}}, nil
}

func (p *fakeProvider) Placeholder(id string) string {
	return fmt.Sprintf("%%recipient.%s%%", id)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []queue.EmailMessage
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, q string, msg queue.EmailMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) publishedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func seedMembers(count int, subscribed bool, status domain.MemberStatus) []domain.Member {
	members := make([]domain.Member, 0, count)
	for i := 0; i < count; i++ {
		members = append(members, domain.Member{
			ID:         fmt.Sprintf("member-%s-%04d", status, i),
			UUID:       fmt.Sprintf("uuid-%s-%04d", status, i),
			Email:      fmt.Sprintf("member-%s-%04d@example.com", status, i),
			Name:       fmt.Sprintf("Member %d", i),
			Subscribed: subscribed,
			Status:     status,
		})
	}
	return members
}
