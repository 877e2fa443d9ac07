package domain

import (
	"fmt"
	"strings"
	"time"
)

// MemberStatus represents the member's tier.
type MemberStatus string

const (
	MemberStatusFree MemberStatus = "FREE"
	MemberStatusPaid MemberStatus = "PAID"
)

func (s MemberStatus) String() string { return string(s) }

func (s MemberStatus) IsValid() bool {
	switch s {
	case MemberStatusFree, MemberStatusPaid:
		return true
	}
	return false
}

func ParseMemberStatusFromString(s string) (MemberStatus, error) {
	st := MemberStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid member status %q", ErrValidation, s)
	}
	return st, nil
}

// Member is a directory entry. The dispatch pipeline reads members and flips
// the subscription flag on unsubscribe; everything else about members is
// owned elsewhere. UUID is the stable opaque token used in unsubscribe links.
type Member struct {
	ID         string
	UUID       string
	Email      string
	Name       string
	Subscribed bool
	Status     MemberStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (m *Member) Validate() error {
	if strings.TrimSpace(m.Email) == "" {
		return fmt.Errorf("%w: member email is required", ErrValidation)
	}
	if strings.TrimSpace(m.UUID) == "" {
		return fmt.Errorf("%w: member uuid is required", ErrValidation)
	}
	if !m.Status.IsValid() {
		return fmt.Errorf("%w: invalid member status %q", ErrValidation, m.Status)
	}
	return nil
}
