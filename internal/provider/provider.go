package provider

import "context"

// Message is the rendered email content sent to the provider. Placeholder
// syntax for personalization is already substituted into the bodies.
type Message struct {
	Subject   string
	HTML      string
	Plaintext string
}

// BatchResult is the outcome of one transport-level batch. It is a two-variant
// result: Err == nil means the provider accepted the batch and the metadata
// fields are set; otherwise Err describes the batch-level failure.
type BatchResult struct {
	BatchID    string      `json:"batchId"`
	Recipients int         `json:"recipients"`
	StatusCode int         `json:"statusCode,omitempty"`
	ProviderID string      `json:"providerId,omitempty"`
	Err        *BatchError `json:"error,omitempty"`
}

func (r BatchResult) Succeeded() bool { return r.Err == nil }

// BatchError carries the human-readable failure for one batch.
type BatchError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode,omitempty"`
	Transient  bool   `json:"transient,omitempty"`
}

// BulkProvider is the outbound delivery port. Implementations batch the
// recipient set internally at their own transport limit; callers get one
// BatchResult per transport batch, successes and failures mixed.
type BulkProvider interface {
	Send(ctx context.Context, msg Message, recipients []string, variables map[string]map[string]string) ([]BatchResult, error)

	// Placeholder returns the provider's substitution syntax for a
	// personalization token id, e.g. %recipient.first_name%.
	Placeholder(id string) string
}
