//go:build !integration

package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-expiry-reminder/internal/domain/model"
	adminhttp "telegram-expiry-reminder/internal/infra/http"
	"telegram-expiry-reminder/internal/usecase"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

var today = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

type stubProducts struct {
	items []*model.Product
	err   error
}

func (s *stubProducts) Add(ctx context.Context, text string) (*model.Product, error) {
	return nil, errors.New("not used")
}

func (s *stubProducts) ListByExpiry(ctx context.Context) ([]*model.Product, error) {
	return s.items, s.err
}

func (s *stubProducts) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return 0, errors.New("not used")
}

var _ usecase.ProductUseCase = (*stubProducts)(nil)

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func day(n int) time.Time {
	return time.Date(2025, 6, 10+n, 0, 0, 0, 0, time.UTC)
}

func newRouter(products *stubProducts, pingers ...adminhttp.Pinger) http.Handler {
	srv := adminhttp.NewServer(products, "secret", func() time.Time { return today }, newLogger(), pingers...)
	return srv.Router()
}

func do(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := do(newRouter(&stubProducts{}, stubPinger{}), http.MethodGet, "/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		if rec.Header().Get("X-Request-Id") == "" {
			t.Error("expected a request id header")
		}
	})
	t.Run("store down", func(t *testing.T) {
		rec := do(newRouter(&stubProducts{}, stubPinger{err: errors.New("down")}), http.MethodGet, "/health", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("want 503, got %d", rec.Code)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newRouter(&stubProducts{}), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

func TestProductsAPI(t *testing.T) {
	products := &stubProducts{items: []*model.Product{
		{ID: 2, Name: "milk", ExpiresOn: day(1)},
		{ID: 1, Name: "cheese", ExpiresOn: day(3)},
	}}

	t.Run("requires the api key", func(t *testing.T) {
		for _, tok := range []string{"", "wrong"} {
			rec := do(newRouter(products), http.MethodGet, "/api/v1/products", tok)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("token %q: want 401, got %d", tok, rec.Code)
			}
		}
	})

	t.Run("lists products", func(t *testing.T) {
		rec := do(newRouter(products), http.MethodGet, "/api/v1/products", "secret")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		var body struct {
			Items []struct {
				ID        int64  `json:"id"`
				Name      string `json:"name"`
				ExpiresOn string `json:"expires_on"`
				DaysLeft  int    `json:"days_left"`
			} `json:"items"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Items) != 2 || body.Items[0].Name != "milk" || body.Items[0].ExpiresOn != "2025-06-11" || body.Items[0].DaysLeft != 1 {
			t.Errorf("unexpected items %+v", body.Items)
		}
	})

	t.Run("store error maps to 500", func(t *testing.T) {
		rec := do(newRouter(&stubProducts{err: errors.New("boom")}), http.MethodGet, "/api/v1/products", "secret")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("want 500, got %d", rec.Code)
		}
	})

	t.Run("preview buckets products", func(t *testing.T) {
		p := &stubProducts{items: []*model.Product{
			{ID: 1, Name: "eggs", ExpiresOn: day(0)},
		}}
		rec := do(newRouter(p), http.MethodGet, "/api/v1/notifications/preview", "secret")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
		var body struct {
			Today    []map[string]interface{} `json:"today"`
			WillSend bool                     `json:"will_send"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if len(body.Today) != 1 || body.WillSend {
			t.Errorf("unexpected preview %+v", body)
		}
	})
}
