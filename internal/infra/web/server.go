package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"invoiceflow/internal/infra/logging"
	"invoiceflow/internal/usecase"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// Server wires the use cases behind the JSON API.
type Server struct {
	userUC usecase.UserUseCase
	subUC  usecase.SubscriptionUseCase
	invUC  usecase.InvoiceUseCase
	genUC  usecase.GenerationUseCase
	auth   *AuthManager
	log    *zerolog.Logger
}

func NewServer(
	userUC usecase.UserUseCase,
	subUC usecase.SubscriptionUseCase,
	invUC usecase.InvoiceUseCase,
	genUC usecase.GenerationUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		userUC: userUC,
		subUC:  subUC,
		invUC:  invUC,
		genUC:  genUC,
		auth:   auth,
		log:    &webLog,
	}
}

// Router builds the chi mux with all routes registered.
func (s *Server) Router(metricsPath string) *chi.Mux {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle(metricsPath, promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.registerHandler())
		r.Post("/auth/login", s.loginHandler())

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/subscriptions", func(r chi.Router) {
				r.Post("/", s.subscriptionCreateHandler())
				r.Get("/", s.subscriptionListHandler())
				r.Get("/{id}", s.subscriptionGetHandler())
				r.Delete("/{id}", s.subscriptionDeleteHandler())
				r.Post("/{id}/pause", s.subscriptionPauseHandler())
				r.Post("/{id}/resume", s.subscriptionResumeHandler())
				r.Post("/{id}/generate", s.subscriptionGenerateHandler())
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Post("/", s.invoiceCreateHandler())
				r.Get("/", s.invoiceListHandler())
				r.Get("/{id}", s.invoiceGetHandler())
				r.Post("/{id}/pay", s.invoicePayHandler())
			})
		})
	})

	return r
}

// authMiddleware verifies the bearer token and stashes the user id in the
// request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		ctx = logging.WithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyUserID).(string)
	return id
}

// runCatchUp fires a generation pass in the background after a login or
// registration. Failures are logged, never surfaced to the caller.
func (s *Server) runCatchUp() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := s.genUC.RunPass(ctx, time.Now().UTC()); err != nil {
			s.log.Warn().Err(err).Msg("post-login generation pass failed")
		}
	}()
}
