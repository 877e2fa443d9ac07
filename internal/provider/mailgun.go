package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Atuoha/Ghost/internal/ratelimit"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	defaultSendTimeout = 30 * time.Second

	// Mailgun rejects batch calls above 1000 recipients.
	defaultMaxRecipientsPerBatch = 1000

	rateLimitChannel = "bulkemail"
)

type mailgunResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// MailgunProvider sends bulk email through Mailgun's batch message API,
// splitting the recipient set at the transport limit and using
// recipient-variables for per-recipient personalization.
type MailgunProvider struct {
	client       *resty.Client
	baseURL      string
	domain       string
	apiKey       string
	maxBatchSize int
	rateLimiter  ratelimit.RateLimiter
}

func NewMailgunProvider(baseURL, domain, apiKey string, rateLimiter ratelimit.RateLimiter) (*MailgunProvider, error) {
	client := resty.New()
	client.SetTimeout(defaultSendTimeout)
	client.SetRetryCount(0)

	return NewMailgunProviderWithClient(baseURL, domain, apiKey, rateLimiter, client)
}

func NewMailgunProviderWithClient(
	baseURL, domain, apiKey string,
	rateLimiter ratelimit.RateLimiter,
	client *resty.Client,
) (*MailgunProvider, error) {
	trimmedBase := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedBase == "" {
		return nil, fmt.Errorf("mailgun base url is required")
	}
	if _, err := url.ParseRequestURI(trimmedBase); err != nil {
		return nil, fmt.Errorf("invalid mailgun base url: %w", err)
	}
	if strings.TrimSpace(domain) == "" {
		return nil, fmt.Errorf("mailgun domain is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("mailgun api key is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultSendTimeout)
	}
	client.SetRetryCount(0)

	return &MailgunProvider{
		client:       client,
		baseURL:      trimmedBase,
		domain:       strings.TrimSpace(domain),
		apiKey:       strings.TrimSpace(apiKey),
		maxBatchSize: defaultMaxRecipientsPerBatch,
		rateLimiter:  rateLimiter,
	}, nil
}

// SetMaxBatchSize overrides the transport batch limit. Intended for tests.
func (p *MailgunProvider) SetMaxBatchSize(size int) {
	if p == nil || size < 1 {
		return
	}
	p.maxBatchSize = size
}

func (p *MailgunProvider) Placeholder(id string) string {
	return fmt.Sprintf("%%recipient.%s%%", id)
}

func (p *MailgunProvider) Send(
	ctx context.Context,
	msg Message,
	recipients []string,
	variables map[string]map[string]string,
) ([]BatchResult, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("provider is not initialized")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return nil, fmt.Errorf("message subject is required")
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}

	results := make([]BatchResult, 0, (len(recipients)+p.maxBatchSize-1)/p.maxBatchSize)

	for start := 0; start < len(recipients); start += p.maxBatchSize {
		end := min(start+p.maxBatchSize, len(recipients))
		chunk := recipients[start:end]
		results = append(results, p.sendBatch(ctx, msg, chunk, variables))
	}

	return results, nil
}

func (p *MailgunProvider) sendBatch(
	ctx context.Context,
	msg Message,
	recipients []string,
	variables map[string]map[string]string,
) BatchResult {
	result := BatchResult{
		BatchID:    uuid.NewString(),
		Recipients: len(recipients),
	}

	if p.rateLimiter != nil {
		if err := p.rateLimiter.Wait(ctx, rateLimitChannel); err != nil {
			result.Err = &BatchError{
				Message:   fmt.Sprintf("rate limiter wait failed: %s", err),
				Transient: !errors.Is(err, context.Canceled),
			}
			return result
		}
	}

	batchVariables := make(map[string]map[string]string, len(recipients))
	for _, email := range recipients {
		if vars, ok := variables[email]; ok {
			batchVariables[email] = vars
		}
	}

	variablesJSON, err := json.Marshal(batchVariables)
	if err != nil {
		result.Err = &BatchError{Message: fmt.Sprintf("failed to encode recipient variables: %s", err)}
		return result
	}

	endpoint := fmt.Sprintf("%s/%s/messages", p.baseURL, p.domain)

	var parsed mailgunResponse
	response, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth("api", p.apiKey).
		SetFormData(map[string]string{
			"to":                  strings.Join(recipients, ","),
			"subject":             msg.Subject,
			"html":                msg.HTML,
			"text":                msg.Plaintext,
			"recipient-variables": string(variablesJSON),
		}).
		SetResult(&parsed).
		Post(endpoint)
	if err != nil {
		result.Err = &BatchError{
			Message:   fmt.Sprintf("provider request failed: %s", err),
			Transient: !errors.Is(err, context.Canceled),
		}
		return result
	}
	if response == nil {
		result.Err = &BatchError{Message: "provider returned empty response", Transient: true}
		return result
	}

	statusCode := response.StatusCode()
	result.StatusCode = statusCode

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		result.ProviderID = parsed.ID
		return result
	}

	result.Err = &BatchError{
		Message:    providerErrorMessage(statusCode, strings.TrimSpace(response.String())),
		StatusCode: statusCode,
		Transient:  isTransientHTTPStatus(statusCode),
	}
	return result
}
