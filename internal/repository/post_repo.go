package repository

import (
	"context"
	"errors"

	"github.com/Atuoha/Ghost/internal/domain"
	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, p *domain.Post) error
	GetByID(ctx context.Context, id string) (*domain.Post, error)
}

type GormPostRepo struct {
	db *gorm.DB
}

func NewGormPostRepo(db *gorm.DB) *GormPostRepo {
	return &GormPostRepo{db: db}
}

func (r *GormPostRepo) Create(ctx context.Context, p *domain.Post) error {
	model := postModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if p != nil {
		*p = *postModelToDomain(model)
	}
	return nil
}

func (r *GormPostRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var model PostModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return postModelToDomain(&model), nil
}
