package apiv1

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"mockdata-subscription/internal/usecase"
)

// UserLimiter is a shared per-user request budget.
type UserLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Options tunes the optional guards around the v1 routes.
type Options struct {
	// AuthGuard wraps the unauthenticated /auth routes.
	AuthGuard func(http.Handler) http.Handler

	Limiter        UserLimiter
	UserRateLimit  int
	UserRateWindow time.Duration
}

// Server holds the v1 REST handlers.
type Server struct {
	users    usecase.UserUseCase
	plans    usecase.PlanUseCase
	orders   usecase.OrderUseCase
	payments usecase.PaymentUseCase
	webhooks usecase.WebhookUseCase
	opts     Options
	log      *zerolog.Logger
}

func NewServer(
	users usecase.UserUseCase,
	plans usecase.PlanUseCase,
	orders usecase.OrderUseCase,
	payments usecase.PaymentUseCase,
	webhooks usecase.WebhookUseCase,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.UserRateWindow <= 0 {
		opts.UserRateWindow = time.Minute
	}
	return &Server{
		users:    users,
		plans:    plans,
		orders:   orders,
		payments: payments,
		webhooks: webhooks,
		opts:     opts,
		log:      logger,
	}
}

// RegisterAPIV1 mounts every /api/v1 route on r.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.opts.AuthGuard != nil {
				r.Use(s.opts.AuthGuard)
			}
			r.Post("/auth/signup", s.signup)
			r.Post("/auth/login", s.login)
			r.Post("/auth/token/verify", s.verifyToken)
			r.Post("/auth/token/refresh", s.refreshToken)
		})

		r.Get("/subscriptions", s.listSubscriptions)

		// provider-facing; authenticated by signature, not bearer token
		r.Post("/payments/webhook", s.webhook)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.With(s.userRateLimit("orders.create")).Post("/orders/create-order", s.createOrder)
			r.Get("/orders/me", s.myOrder)
			r.With(s.userRateLimit("payments.initiate")).Get("/payments/initiate", s.initiatePayment)
		})
	})
}
