package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Atuoha/Ghost/internal/domain"
	"github.com/Atuoha/Ghost/internal/repository"
	"go.uber.org/zap"
)

// MemberService exposes the one member mutation the pipeline owns:
// unsubscribing via the opaque link token.
type MemberService struct {
	members repository.MemberRepository
	logger  *zap.Logger
}

func NewMemberService(members repository.MemberRepository, logger *zap.Logger) *MemberService {
	return &MemberService{members: members, logger: logger}
}

// Unsubscribe flips the subscription flag for the member behind the token.
// Unknown tokens are a not-found condition, distinct from lookup failures.
// Repeat calls for an already unsubscribed member succeed unchanged.
func (s *MemberService) Unsubscribe(ctx context.Context, memberUUID string) (*domain.Member, error) {
	if strings.TrimSpace(memberUUID) == "" {
		return nil, fmt.Errorf("%w: member uuid is required", domain.ErrValidation)
	}

	member, err := s.members.GetByUUID(ctx, memberUUID)
	if err != nil {
		return nil, err
	}

	if !member.Subscribed {
		return member, nil
	}

	member.Subscribed = false
	if err := s.members.Update(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to unsubscribe member: %w", err)
	}

	s.logger.Info("member unsubscribed", zap.String("memberId", member.ID))
	return member, nil
}
