package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/Atuoha/Ghost/internal/domain"
	"github.com/gofiber/fiber/v2"
)

type MemberService interface {
	Unsubscribe(ctx context.Context, memberUUID string) (*domain.Member, error)
}

type MemberHandler struct {
	service MemberService
}

func NewMemberHandler(service MemberService) (*MemberHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("member service is required")
	}
	return &MemberHandler{service: service}, nil
}

// RegisterMemberRoutes mounts the unsubscribe endpoint outside the versioned
// API group so the link embedded in sent emails stays stable.
func RegisterMemberRoutes(router fiber.Router, service MemberService) error {
	h, err := NewMemberHandler(service)
	if err != nil {
		return err
	}

	router.Put("/unsubscribe", h.Unsubscribe)
	return nil
}

func (h *MemberHandler) Unsubscribe(c *fiber.Ctx) error {
	memberUUID := strings.TrimSpace(c.Query("uuid"))
	if memberUUID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "uuid query parameter is required")
	}

	member, err := h.service.Unsubscribe(c.Context(), memberUUID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"uuid":       member.UUID,
		"subscribed": member.Subscribed,
	})
}
