package domain

import (
	"fmt"
	"strings"
	"time"
)

// Visibility controls which members are eligible to receive a post by email.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityMembers Visibility = "MEMBERS"
	VisibilityPaid    Visibility = "PAID"
)

func (v Visibility) String() string { return string(v) }

func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityMembers, VisibilityPaid:
		return true
	}
	return false
}

// PaidOnly reports whether only paid members may receive the post.
func (v Visibility) PaidOnly() bool { return v == VisibilityPaid }

func ParseVisibilityFromString(s string) (Visibility, error) {
	v := Visibility(strings.ToUpper(strings.TrimSpace(s)))
	if !v.IsValid() {
		return "", fmt.Errorf("%w: invalid visibility %q", ErrValidation, s)
	}
	return v, nil
}

// Post is the content item a dispatch is derived from. The pipeline only
// reads posts; authoring and publication are owned elsewhere.
type Post struct {
	ID          string
	Title       string
	HTML        string
	Plaintext   string
	Visibility  Visibility
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Post) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: post title is required", ErrValidation)
	}
	if !p.Visibility.IsValid() {
		return fmt.Errorf("%w: invalid visibility %q", ErrValidation, p.Visibility)
	}
	return nil
}
