package queue

import (
	"fmt"
	"strings"
)

// EmailMessage is the broker payload for one dispatch job.
type EmailMessage struct {
	EmailID       string `json:"emailId"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func (m EmailMessage) Validate() error {
	if strings.TrimSpace(m.EmailID) == "" {
		return fmt.Errorf("emailId is required")
	}
	return nil
}
