package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Atuoha/Ghost/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const memberListPageSize = 1000

// MemberFilter selects the eligible audience for a dispatch. Subscribed is
// always required by callers; PaidOnly narrows to paid members for
// paid-restricted posts. ForUpdate locks the selected rows so counting and
// resolving inside one transaction stay consistent under concurrent writers.
type MemberFilter struct {
	Subscribed bool
	PaidOnly   bool
	ForUpdate  bool
}

type MemberRepository interface {
	Count(ctx context.Context, filter MemberFilter) (int64, error)
	List(ctx context.Context, filter MemberFilter) ([]domain.Member, error)
	GetByUUID(ctx context.Context, uuid string) (*domain.Member, error)
	Update(ctx context.Context, m *domain.Member) error
}

type GormMemberRepo struct {
	db *gorm.DB
}

func NewGormMemberRepo(db *gorm.DB) *GormMemberRepo {
	return &GormMemberRepo{db: db}
}

func (r *GormMemberRepo) filtered(ctx context.Context, filter MemberFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&MemberModel{}).
		Where("subscribed = ?", filter.Subscribed)
	if filter.PaidOnly {
		query = query.Where("status = ?", domain.MemberStatusPaid)
	}
	if filter.ForUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}

func (r *GormMemberRepo) Count(ctx context.Context, filter MemberFilter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// List pages through the full eligible audience in stable id order.
func (r *GormMemberRepo) List(ctx context.Context, filter MemberFilter) ([]domain.Member, error) {
	var members []domain.Member
	lastID := ""

	for {
		query := r.filtered(ctx, filter).Order("id ASC").Limit(memberListPageSize)
		if lastID != "" {
			query = query.Where("id > ?", lastID)
		}

		var models []MemberModel
		if err := query.Find(&models).Error; err != nil {
			return nil, err
		}
		if len(models) == 0 {
			return members, nil
		}

		for i := range models {
			members = append(members, *memberModelToDomain(&models[i]))
		}
		lastID = models[len(models)-1].ID
	}
}

func (r *GormMemberRepo) GetByUUID(ctx context.Context, uuid string) (*domain.Member, error) {
	var model MemberModel
	err := r.db.WithContext(ctx).
		Where("uuid = ?", uuid).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return memberModelToDomain(&model), nil
}

func (r *GormMemberRepo) Update(ctx context.Context, m *domain.Member) error {
	if m == nil {
		return fmt.Errorf("%w: member is required", domain.ErrValidation)
	}

	model := memberModelFromDomain(m)
	result := r.db.WithContext(ctx).
		Model(&MemberModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"email":      model.Email,
			"name":       model.Name,
			"subscribed": model.Subscribed,
			"status":     model.Status,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
