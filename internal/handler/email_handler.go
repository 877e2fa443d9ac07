package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Atuoha/Ghost/internal/domain"
	"github.com/Atuoha/Ghost/internal/events"
	"github.com/Atuoha/Ghost/internal/observability"
	"github.com/Atuoha/Ghost/internal/repository"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type EmailService interface {
	CreateForPost(ctx context.Context, postID string, emitCtx events.EmitContext) (*domain.Email, error)
	GetByID(ctx context.Context, id string) (*domain.Email, error)
	GetByPostID(ctx context.Context, postID string) (*domain.Email, error)
	List(ctx context.Context, params repository.ListEmailParams) ([]domain.Email, int64, error)
	ListBatches(ctx context.Context, emailID string) ([]domain.EmailBatch, error)
	Retry(ctx context.Context, id string) (*domain.Email, error)
}

type EmailHandler struct {
	service EmailService
}

func NewEmailHandler(service EmailService) (*EmailHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("email service is required")
	}
	return &EmailHandler{service: service}, nil
}

func RegisterEmailRoutes(router fiber.Router, service EmailService) error {
	h, err := NewEmailHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/emails", h.CreateEmail)
	v1.Get("/emails/:id", h.GetEmail)
	v1.Get("/emails", h.ListEmails)
	v1.Post("/emails/:id/retry", h.RetryEmail)
	v1.Get("/emails/:id/batches", h.ListEmailBatches)
	v1.Get("/posts/:postId/email", h.GetEmailForPost)

	return nil
}

type createEmailRequest struct {
	PostID    string `json:"postId"`
	Importing bool   `json:"importing"`
}

type emailResponse struct {
	ID             string     `json:"id"`
	PostID         string     `json:"postId"`
	Status         string     `json:"status"`
	RecipientCount int        `json:"recipientCount"`
	Subject        string     `json:"subject"`
	Error          *string    `json:"error,omitempty"`
	ErrorData      *string    `json:"errorData,omitempty"`
	Meta           *string    `json:"meta,omitempty"`
	SubmittedAt    *time.Time `json:"submittedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt,omitempty"`
}

type listEmailsResponse struct {
	Data []emailResponse `json:"data"`
	Meta listMeta        `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type emailBatchResponse struct {
	ID          string    `json:"id"`
	EmailID     string    `json:"emailId"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

func (h *EmailHandler) CreateEmail(c *fiber.Ctx) error {
	var req createEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx := requestContext(c)
	email, err := h.service.CreateForPost(ctx, strings.TrimSpace(req.PostID), events.EmitContext{Importing: req.Importing})
	if err != nil {
		return toHTTPError(err)
	}

	if email == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "no eligible recipients",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(toEmailResponse(email))
}

func (h *EmailHandler) GetEmail(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	email, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toEmailResponse(email))
}

func (h *EmailHandler) GetEmailForPost(c *fiber.Ctx) error {
	postID := strings.TrimSpace(c.Params("postId"))
	email, err := h.service.GetByPostID(c.Context(), postID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toEmailResponse(email))
}

func (h *EmailHandler) ListEmails(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	emails, total, err := h.service.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]emailResponse, 0, len(emails))
	for i := range emails {
		responses = append(responses, toEmailResponse(&emails[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listEmailsResponse{
		Data: responses,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *EmailHandler) RetryEmail(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	email, err := h.service.Retry(requestContext(c), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toEmailResponse(email))
}

func (h *EmailHandler) ListEmailBatches(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	batches, err := h.service.ListBatches(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]emailBatchResponse, 0, len(batches))
	for _, b := range batches {
		responses = append(responses, emailBatchResponse{
			ID:          b.ID,
			EmailID:     b.EmailID,
			MemberCount: b.MemberCount,
			CreatedAt:   b.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"emailId": id,
		"batches": responses,
	})
}

func parseListParams(c *fiber.Ctx) (repository.ListEmailParams, error) {
	params := repository.ListEmailParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.ListEmailParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListEmailParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseStatusFromString(rawStatus)
		if err != nil {
			return repository.ListEmailParams{}, err
		}
		params.Status = &status
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.ListEmailParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.ListEmailParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.Context()
	if correlationID := requestCorrelationID(c); correlationID != "" {
		return observability.WithCorrelationID(ctx, correlationID)
	}
	return ctx
}

func requestCorrelationID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	if value, ok := c.Locals("requestid").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func toEmailResponse(e *domain.Email) emailResponse {
	if e == nil {
		return emailResponse{}
	}

	return emailResponse{
		ID:             e.ID,
		PostID:         e.PostID,
		Status:         e.Status.String(),
		RecipientCount: e.RecipientCount,
		Subject:        e.Subject,
		Error:          e.Error,
		ErrorData:      e.ErrorData,
		Meta:           e.Meta,
		SubmittedAt:    e.SubmittedAt,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
