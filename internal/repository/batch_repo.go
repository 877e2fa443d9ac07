package repository

import (
	"context"

	"github.com/Atuoha/Ghost/internal/domain"
	"gorm.io/gorm"
)

const recipientInsertChunk = 500

type EmailBatchRepository interface {
	Create(ctx context.Context, b *domain.EmailBatch) error
	CreateRecipients(ctx context.Context, recipients []*domain.EmailRecipient) error
	ListByEmailID(ctx context.Context, emailID string) ([]domain.EmailBatch, error)
	CountRecipients(ctx context.Context, batchID string) (int64, error)
}

type GormEmailBatchRepo struct {
	db *gorm.DB
}

func NewGormEmailBatchRepo(db *gorm.DB) *GormEmailBatchRepo {
	return &GormEmailBatchRepo{db: db}
}

func (r *GormEmailBatchRepo) Create(ctx context.Context, b *domain.EmailBatch) error {
	model := batchModelFromDomain(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if b != nil {
		*b = *batchModelToDomain(model)
	}
	return nil
}

func (r *GormEmailBatchRepo) CreateRecipients(ctx context.Context, recipients []*domain.EmailRecipient) error {
	models := make([]EmailRecipientModel, 0, len(recipients))
	modelIndexes := make([]int, 0, len(recipients))
	for i, recipient := range recipients {
		model := recipientModelFromDomain(recipient)
		if model != nil {
			models = append(models, *model)
			modelIndexes = append(modelIndexes, i)
		}
	}

	if len(models) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&models, recipientInsertChunk).Error; err != nil {
		return err
	}

	for i := range models {
		idx := modelIndexes[i]
		if idx < len(recipients) && recipients[idx] != nil {
			*recipients[idx] = *recipientModelToDomain(&models[i])
		}
	}

	return nil
}

func (r *GormEmailBatchRepo) ListByEmailID(ctx context.Context, emailID string) ([]domain.EmailBatch, error) {
	var models []EmailBatchModel
	err := r.db.WithContext(ctx).
		Where("email_id = ?", emailID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	batches := make([]domain.EmailBatch, 0, len(models))
	for i := range models {
		batches = append(batches, *batchModelToDomain(&models[i]))
	}

	return batches, nil
}

func (r *GormEmailBatchRepo) CountRecipients(ctx context.Context, batchID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&EmailRecipientModel{}).
		Where("batch_id = ?", batchID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
