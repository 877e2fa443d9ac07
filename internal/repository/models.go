package repository

import (
	"time"

	"github.com/Atuoha/Ghost/internal/domain"
)

// EmailModel is the persistence model for the emails table.
type EmailModel struct {
	ID             string        `gorm:"type:uuid;primaryKey"`
	PostID         string        `gorm:"type:uuid;not null"`
	Status         domain.Status `gorm:"type:varchar(20);not null"`
	RecipientCount int           `gorm:"not null;default:0"`
	Subject        string        `gorm:"type:varchar(300);not null"`
	HTML           string        `gorm:"type:text;not null"`
	Plaintext      string        `gorm:"type:text;not null"`
	Error          *string       `gorm:"type:varchar(2000)"`
	ErrorData      *string       `gorm:"type:text"`
	Meta           *string       `gorm:"type:text"`
	SubmittedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (EmailModel) TableName() string {
	return "emails"
}

// EmailBatchModel is the persistence model for email_batches.
type EmailBatchModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	EmailID     string `gorm:"type:uuid;not null"`
	MemberCount int    `gorm:"not null"`
	CreatedAt   time.Time
}

func (EmailBatchModel) TableName() string {
	return "email_batches"
}

// EmailRecipientModel is the persistence model for email_recipients.
type EmailRecipientModel struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	EmailID     string `gorm:"type:uuid;not null"`
	BatchID     string `gorm:"type:uuid;not null"`
	MemberID    string `gorm:"type:uuid;not null"`
	MemberUUID  string `gorm:"type:varchar(36);not null"`
	MemberEmail string `gorm:"type:varchar(255);not null"`
	MemberName  string `gorm:"type:varchar(255)"`
	CreatedAt   time.Time
}

func (EmailRecipientModel) TableName() string {
	return "email_recipients"
}

// MemberModel is the persistence model for members.
type MemberModel struct {
	ID         string              `gorm:"type:uuid;primaryKey"`
	UUID       string              `gorm:"type:varchar(36);not null"`
	Email      string              `gorm:"type:varchar(255);not null"`
	Name       string              `gorm:"type:varchar(255)"`
	Subscribed bool                `gorm:"not null;default:true"`
	Status     domain.MemberStatus `gorm:"type:varchar(10);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (MemberModel) TableName() string {
	return "members"
}

// PostModel is the persistence model for posts.
type PostModel struct {
	ID          string            `gorm:"type:uuid;primaryKey"`
	Title       string            `gorm:"type:varchar(300);not null"`
	HTML        string            `gorm:"type:text;not null"`
	Plaintext   string            `gorm:"type:text"`
	Visibility  domain.Visibility `gorm:"type:varchar(10);not null"`
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PostModel) TableName() string {
	return "posts"
}

func emailModelFromDomain(e *domain.Email) *EmailModel {
	if e == nil {
		return nil
	}

	return &EmailModel{
		ID:             e.ID,
		PostID:         e.PostID,
		Status:         e.Status,
		RecipientCount: e.RecipientCount,
		Subject:        e.Subject,
		HTML:           e.HTML,
		Plaintext:      e.Plaintext,
		Error:          e.Error,
		ErrorData:      e.ErrorData,
		Meta:           e.Meta,
		SubmittedAt:    e.SubmittedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func emailModelToDomain(m *EmailModel) *domain.Email {
	if m == nil {
		return nil
	}

	return &domain.Email{
		ID:             m.ID,
		PostID:         m.PostID,
		Status:         m.Status,
		RecipientCount: m.RecipientCount,
		Subject:        m.Subject,
		HTML:           m.HTML,
		Plaintext:      m.Plaintext,
		Error:          m.Error,
		ErrorData:      m.ErrorData,
		Meta:           m.Meta,
		SubmittedAt:    m.SubmittedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func batchModelFromDomain(b *domain.EmailBatch) *EmailBatchModel {
	if b == nil {
		return nil
	}

	return &EmailBatchModel{
		ID:          b.ID,
		EmailID:     b.EmailID,
		MemberCount: b.MemberCount,
		CreatedAt:   b.CreatedAt,
	}
}

func batchModelToDomain(m *EmailBatchModel) *domain.EmailBatch {
	if m == nil {
		return nil
	}

	return &domain.EmailBatch{
		ID:          m.ID,
		EmailID:     m.EmailID,
		MemberCount: m.MemberCount,
		CreatedAt:   m.CreatedAt,
	}
}

func recipientModelFromDomain(r *domain.EmailRecipient) *EmailRecipientModel {
	if r == nil {
		return nil
	}

	return &EmailRecipientModel{
		ID:          r.ID,
		EmailID:     r.EmailID,
		BatchID:     r.BatchID,
		MemberID:    r.MemberID,
		MemberUUID:  r.MemberUUID,
		MemberEmail: r.MemberEmail,
		MemberName:  r.MemberName,
		CreatedAt:   r.CreatedAt,
	}
}

func recipientModelToDomain(m *EmailRecipientModel) *domain.EmailRecipient {
	if m == nil {
		return nil
	}

	return &domain.EmailRecipient{
		ID:          m.ID,
		EmailID:     m.EmailID,
		BatchID:     m.BatchID,
		MemberID:    m.MemberID,
		MemberUUID:  m.MemberUUID,
		MemberEmail: m.MemberEmail,
		MemberName:  m.MemberName,
		CreatedAt:   m.CreatedAt,
	}
}

func memberModelFromDomain(m *domain.Member) *MemberModel {
	if m == nil {
		return nil
	}

	return &MemberModel{
		ID:         m.ID,
		UUID:       m.UUID,
		Email:      m.Email,
		Name:       m.Name,
		Subscribed: m.Subscribed,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func memberModelToDomain(m *MemberModel) *domain.Member {
	if m == nil {
		return nil
	}

	return &domain.Member{
		ID:         m.ID,
		UUID:       m.UUID,
		Email:      m.Email,
		Name:       m.Name,
		Subscribed: m.Subscribed,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func postModelFromDomain(p *domain.Post) *PostModel {
	if p == nil {
		return nil
	}

	return &PostModel{
		ID:          p.ID,
		Title:       p.Title,
		HTML:        p.HTML,
		Plaintext:   p.Plaintext,
		Visibility:  p.Visibility,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func postModelToDomain(m *PostModel) *domain.Post {
	if m == nil {
		return nil
	}

	return &domain.Post{
		ID:          m.ID,
		Title:       m.Title,
		HTML:        m.HTML,
		Plaintext:   m.Plaintext,
		Visibility:  m.Visibility,
		PublishedAt: m.PublishedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
