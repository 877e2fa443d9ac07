package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/Atuoha/Ghost/internal/domain"
	"github.com/Atuoha/Ghost/internal/transport"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type stubMemberService struct {
	unsubscribeFn func(ctx context.Context, memberUUID string) (*domain.Member, error)
}

func (s *stubMemberService) Unsubscribe(ctx context.Context, memberUUID string) (*domain.Member, error) {
	return s.unsubscribeFn(ctx, memberUUID)
}

func newMemberTestApp(t *testing.T, svc MemberService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
	if err := RegisterMemberRoutes(app, svc); err != nil {
		t.Fatalf("RegisterMemberRoutes() error = %v", err)
	}
	return app
}

func TestUnsubscribe_OK(t *testing.T) {
	t.Parallel()

	svc := &stubMemberService{
		unsubscribeFn: func(ctx context.Context, memberUUID string) (*domain.Member, error) {
			return &domain.Member{ID: "m-1", UUID: memberUUID, Subscribed: false}, nil
		},
	}

	app := newMemberTestApp(t, svc)

	resp, body := performRequest(t, app, http.MethodPut, "/unsubscribe?uuid=u-1", "")
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", resp.StatusCode, string(body))
	}
	if !strings.Contains(string(body), `"subscribed":false`) {
		t.Fatalf("body = %s, want subscribed:false", string(body))
	}
}

func TestUnsubscribe_UnknownTokenIs404(t *testing.T) {
	t.Parallel()

	svc := &stubMemberService{
		unsubscribeFn: func(ctx context.Context, memberUUID string) (*domain.Member, error) {
			return nil, domain.ErrNotFound
		},
	}

	app := newMemberTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPut, "/unsubscribe?uuid=no-such", "")
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUnsubscribe_LookupFailureIs500(t *testing.T) {
	t.Parallel()

	svc := &stubMemberService{
		unsubscribeFn: func(ctx context.Context, memberUUID string) (*domain.Member, error) {
			return nil, errors.New("connection reset")
		},
	}

	app := newMemberTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPut, "/unsubscribe?uuid=u-1", "")
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestUnsubscribe_MissingUUID(t *testing.T) {
	t.Parallel()

	svc := &stubMemberService{
		unsubscribeFn: func(ctx context.Context, memberUUID string) (*domain.Member, error) {
			t.Fatal("service should not be called without a uuid")
			return nil, nil
		},
	}

	app := newMemberTestApp(t, svc)

	resp, _ := performRequest(t, app, http.MethodPut, "/unsubscribe", "")
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
