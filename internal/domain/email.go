package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a bulk email dispatch.
//
// Valid transitions: PENDING -> SUBMITTING -> {SUBMITTED, FAILED}.
// FAILED -> PENDING is the only re-entry and happens via retry.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusSubmitting Status = "SUBMITTING"
	StatusSubmitted  Status = "SUBMITTED"
	StatusFailed     Status = "FAILED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSubmitting, StatusSubmitted, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the attempt reached a final state. A terminal
// email never transitions again without an explicit retry.
func (s Status) IsTerminal() bool {
	return s == StatusSubmitted || s == StatusFailed
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Email is the durable dispatch record for one post. At most one email exists
// per post; the subject and rendered bodies are snapshotted at creation time
// so later post edits do not change what was sent.
type Email struct {
	ID             string
	PostID         string
	Status         Status
	RecipientCount int
	Subject        string
	HTML           string
	Plaintext      string
	Error          *string
	ErrorData      *string
	Meta           *string
	SubmittedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (e *Email) Validate() error {
	if strings.TrimSpace(e.PostID) == "" {
		return fmt.Errorf("%w: post id is required", ErrValidation)
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, e.Status)
	}
	if e.RecipientCount < 0 {
		return fmt.Errorf("%w: recipient count must not be negative", ErrValidation)
	}
	return nil
}

// EmailBatch is one fixed-size partition of the recipient snapshot. Batches
// exist for audit and history; the provider chunks independently on the wire.
type EmailBatch struct {
	ID          string
	EmailID     string
	MemberCount int
	CreatedAt   time.Time
}

// EmailRecipient is a snapshot row copied from the member directory at send
// time. The row id is generated rather than derived from the member so a
// retry can write a fresh snapshot without colliding with prior attempts.
type EmailRecipient struct {
	ID          string
	EmailID     string
	BatchID     string
	MemberID    string
	MemberUUID  string
	MemberEmail string
	MemberName  string
	CreatedAt   time.Time
}
