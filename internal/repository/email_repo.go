package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Atuoha/Ghost/internal/domain"
	"gorm.io/gorm"
)

type ListEmailParams struct {
	Status   *domain.Status
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// CompleteEmailParams carries the single final write of a dispatch attempt.
type CompleteEmailParams struct {
	Status      domain.Status
	Error       *string
	ErrorData   *string
	Meta        *string
	SubmittedAt time.Time
}

type EmailRepository interface {
	Create(ctx context.Context, e *domain.Email) error
	GetByID(ctx context.Context, id string) (*domain.Email, error)
	GetByPostID(ctx context.Context, postID string) (*domain.Email, error)
	List(ctx context.Context, params ListEmailParams) ([]domain.Email, int64, error)
	UpdateStatus(ctx context.Context, id string, status domain.Status) error
	MarkSubmitting(ctx context.Context, id string) (bool, error)
	Complete(ctx context.Context, id string, params CompleteEmailParams) error
}

type GormEmailRepo struct {
	db *gorm.DB
}

func NewGormEmailRepo(db *gorm.DB) *GormEmailRepo {
	return &GormEmailRepo{db: db}
}

func (r *GormEmailRepo) Create(ctx context.Context, e *domain.Email) error {
	model := emailModelFromDomain(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if e != nil {
		*e = *emailModelToDomain(model)
	}
	return nil
}

func (r *GormEmailRepo) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	var model EmailModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return emailModelToDomain(&model), nil
}

func (r *GormEmailRepo) GetByPostID(ctx context.Context, postID string) (*domain.Email, error) {
	var model EmailModel
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return emailModelToDomain(&model), nil
}

func (r *GormEmailRepo) List(ctx context.Context, params ListEmailParams) ([]domain.Email, int64, error) {
	query := r.db.WithContext(ctx).Model(&EmailModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []EmailModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	emails := make([]domain.Email, 0, len(models))
	for i := range models {
		emails = append(emails, *emailModelToDomain(&models[i]))
	}

	return emails, total, nil
}

func (r *GormEmailRepo) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&EmailModel{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkSubmitting transitions PENDING -> SUBMITTING in one conditional update.
// A false result means another run already claimed the email (or it is in a
// terminal state) and the caller must not proceed.
func (r *GormEmailRepo) MarkSubmitting(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&EmailModel{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Update("status", domain.StatusSubmitting)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormEmailRepo) Complete(ctx context.Context, id string, params CompleteEmailParams) error {
	result := r.db.WithContext(ctx).
		Model(&EmailModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       params.Status,
			"error":        params.Error,
			"error_data":   params.ErrorData,
			"meta":         params.Meta,
			"submitted_at": params.SubmittedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
