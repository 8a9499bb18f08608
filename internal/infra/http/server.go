package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"telegram-expiry-reminder/internal/domain/model"
	"telegram-expiry-reminder/internal/infra/logging"
	"telegram-expiry-reminder/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the admin surface: health, Prometheus metrics and a read-only product API.
type Server struct {
	products usecase.ProductUseCase
	pingers  []Pinger
	apiKey   string
	clock    func() time.Time
	log      *zerolog.Logger
	server   *http.Server
}

func NewServer(products usecase.ProductUseCase, apiKey string, clock func() time.Time, logger *zerolog.Logger, pingers ...Pinger) *Server {
	if clock == nil {
		clock = time.Now
	}
	l := logger.With().Str("component", "AdminHTTP").Logger()
	return &Server{
		products: products,
		pingers:  pingers,
		apiKey:   apiKey,
		clock:    clock,
		log:      &l,
	}
}

// Router builds the chi router. Exposed for tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(10*time.Second))

	r.Get("/health", s.handleHealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuth(s.apiKey))
		r.Get("/products", s.handleListProducts)
		r.Get("/notifications/preview", s.handlePreview)
	})
	return r
}

func (s *Server) Start(port int) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("admin HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	for _, p := range s.pingers {
		if err := p.Ping(r.Context()); err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type productDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ExpiresOn string `json:"expires_on"`
	DaysLeft  int    `json:"days_left"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) toDTOs(items []*model.Product, today time.Time) []productDTO {
	out := make([]productDTO, 0, len(items))
	for _, p := range items {
		out = append(out, productDTO{
			ID:        p.ID,
			Name:      p.Name,
			ExpiresOn: p.ExpiresOn.Format("2006-01-02"),
			DaysLeft:  p.DaysLeft(today),
		})
	}
	return out
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	items, err := s.products.ListByExpiry(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("list products failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": s.toDTOs(items, s.clock())})
}

// handlePreview shows how the next notification pass would bucket products.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	items, err := s.products.ListByExpiry(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("list products failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	today := s.clock()
	tiers := usecase.ClassifyExpiry(today, items)

	warnings := map[string][]productDTO{}
	for d, members := range tiers.Warnings {
		warnings[fmt.Sprint(d)] = s.toDTOs(members, today)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"today_date": today.Format("2006-01-02"),
		"warnings":   warnings,
		"today":      s.toDTOs(tiers.Today, today),
		"expired":    s.toDTOs(tiers.Expired, today),
		"will_send":  tiers.HasWarnings(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
