package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
)

type recordedRequest struct {
	to                 string
	subject            string
	recipientVariables string
	authHeader         string
}

func newMailgunTestServer(t *testing.T, statusCode int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var requests []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form error = %v", err)
		}

		mu.Lock()
		requests = append(requests, recordedRequest{
			to:                 r.PostFormValue("to"),
			subject:            r.PostFormValue("subject"),
			recipientVariables: r.PostFormValue("recipient-variables"),
			authHeader:         r.Header.Get("Authorization"),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, &requests
}

func newTestProvider(t *testing.T, baseURL string) *MailgunProvider {
	t.Helper()

	p, err := NewMailgunProviderWithClient(baseURL, "mail.example.com", "key-test", nil, resty.New())
	if err != nil {
		t.Fatalf("NewMailgunProviderWithClient() error = %v", err)
	}
	return p
}

func TestSend_SuccessfulBatch(t *testing.T) {
	t.Parallel()

	server, requests := newMailgunTestServer(t, http.StatusOK, `{"id":"<msg-1@mail.example.com>","message":"Queued"}`)
	p := newTestProvider(t, server.URL)

	results, err := p.Send(context.Background(),
		Message{Subject: "Digest", HTML: "<p>hi %recipient.first_name%</p>", Plaintext: "hi"},
		[]string{"a@example.com", "b@example.com"},
		map[string]map[string]string{
			"a@example.com": {"first_name": "Ada"},
			"b@example.com": {"first_name": "there"},
		},
	)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if !results[0].Succeeded() {
		t.Fatalf("batch failed: %+v", results[0].Err)
	}
	if results[0].ProviderID != "<msg-1@mail.example.com>" {
		t.Fatalf("providerId = %q", results[0].ProviderID)
	}
	if results[0].Recipients != 2 {
		t.Fatalf("recipients = %d, want 2", results[0].Recipients)
	}

	if len(*requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(*requests))
	}
	req := (*requests)[0]
	if req.to != "a@example.com,b@example.com" {
		t.Fatalf("to = %q", req.to)
	}
	if !strings.Contains(req.recipientVariables, `"first_name":"Ada"`) {
		t.Fatalf("recipient-variables = %q, want Ada's variables", req.recipientVariables)
	}
	if !strings.HasPrefix(req.authHeader, "Basic ") {
		t.Fatalf("auth header = %q, want basic auth", req.authHeader)
	}
}

func TestSend_ChunksAtTransportLimit(t *testing.T) {
	t.Parallel()

	server, requests := newMailgunTestServer(t, http.StatusOK, `{"id":"<msg@m>","message":"Queued"}`)
	p := newTestProvider(t, server.URL)
	p.SetMaxBatchSize(2)

	recipients := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	results, err := p.Send(context.Background(), Message{Subject: "Digest"}, recipients, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3 transport batches", len(results))
	}
	if len(*requests) != 3 {
		t.Fatalf("requests = %d, want 3", len(*requests))
	}

	wantCounts := []int{2, 2, 1}
	for i, r := range results {
		if r.Recipients != wantCounts[i] {
			t.Fatalf("batch %d recipients = %d, want %d", i, r.Recipients, wantCounts[i])
		}
		if !r.Succeeded() {
			t.Fatalf("batch %d failed: %+v", i, r.Err)
		}
	}
}

func TestSend_ErrorStatusClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "rate limited", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "server error", statusCode: http.StatusInternalServerError, wantTransient: true},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, wantTransient: false},
		{name: "bad request", statusCode: http.StatusBadRequest, wantTransient: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server, _ := newMailgunTestServer(t, tc.statusCode, `{"message":"nope"}`)
			p := newTestProvider(t, server.URL)

			results, err := p.Send(context.Background(), Message{Subject: "Digest"}, []string{"a@x.com"}, nil)
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("results = %d, want 1", len(results))
			}

			r := results[0]
			if r.Succeeded() {
				t.Fatal("batch should have failed")
			}
			if r.Err.StatusCode != tc.statusCode {
				t.Fatalf("statusCode = %d, want %d", r.Err.StatusCode, tc.statusCode)
			}
			if r.Err.Transient != tc.wantTransient {
				t.Fatalf("transient = %v, want %v", r.Err.Transient, tc.wantTransient)
			}
		})
	}
}

func TestSend_MixedOutcomesAcrossChunks(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		current := calls
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if current == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":"<ok@m>","message":"Queued"}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"try later"}`))
	}))
	t.Cleanup(server.Close)

	p := newTestProvider(t, server.URL)
	p.SetMaxBatchSize(1)

	results, err := p.Send(context.Background(), Message{Subject: "Digest"}, []string{"a@x.com", "b@x.com"}, nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !results[0].Succeeded() || results[1].Succeeded() {
		t.Fatalf("results = %+v, want first ok second failed", results)
	}
}

func TestSend_InputValidation(t *testing.T) {
	t.Parallel()

	server, _ := newMailgunTestServer(t, http.StatusOK, `{}`)
	p := newTestProvider(t, server.URL)

	if _, err := p.Send(context.Background(), Message{}, []string{"a@x.com"}, nil); err == nil {
		t.Fatal("expected error for empty subject")
	}
	if _, err := p.Send(context.Background(), Message{Subject: "s"}, nil, nil); err == nil {
		t.Fatal("expected error for empty recipients")
	}
}

func TestPlaceholder_Syntax(t *testing.T) {
	t.Parallel()

	server, _ := newMailgunTestServer(t, http.StatusOK, `{}`)
	p := newTestProvider(t, server.URL)

	if got := p.Placeholder("first_name"); got != "%recipient.first_name%" {
		t.Fatalf("Placeholder() = %q", got)
	}
}
