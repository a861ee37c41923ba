// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"mockdata-subscription/internal/config"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/domain/ports/adapter"
	"mockdata-subscription/internal/infra/api"
	"mockdata-subscription/internal/infra/api/apiv1"
	pg "mockdata-subscription/internal/infra/db/postgres"
	"mockdata-subscription/internal/infra/logging"
	"mockdata-subscription/internal/infra/metrics"
	"mockdata-subscription/internal/infra/payment"
	red "mockdata-subscription/internal/infra/redis"
	"mockdata-subscription/internal/infra/sched"
	"mockdata-subscription/internal/infra/security"
	"mockdata-subscription/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, no sampling)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	// ---- Postgres ----
	if cfg.Database.MigrateOnBoot {
		if err := pg.MigrateUp(cfg.Database.URL, logger); err != nil {
			return err
		}
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	// ---- Metrics ----
	metrics.MustRegister()
	go reportPoolStats(ctx, pool)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	userRepo := pg.NewPostgresUserRepo(pool)
	subRepo := pg.NewSubscriptionRepoCacheDecorator(pg.NewSubscriptionRepo(pool), redisClient, cfg.Redis.TTL, logger)
	orderRepo := pg.NewOrderRepo(pool)
	payRepo := pg.NewPaymentRepo(pool)
	tokens := usecase.NewTokenAllocator(pg.NewTokenRegistry(pool))

	// ---- Adapters ----
	var provider adapter.PaymentProvider
	switch cfg.Payment.Provider {
	case "noop":
		logger.Warn().Msg("payment provider: noop (no real charges)")
		provider = payment.NewNoopGateway()
	default:
		provider = payment.NewPaystackGateway(cfg.Payment.Paystack.SecretKey, cfg.Payment.Paystack.BaseURL, cfg.Payment.Paystack.Timeout)
	}
	verifier := security.NewHMACVerifier(cfg.Payment.Paystack.SecretKey)
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	issuer := security.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	locker := red.NewLocker(redisClient)

	// ---- Use cases ----
	userUC := usecase.NewUserUseCase(userRepo, tokens, hasher, issuer, tm, logger)
	planUC := usecase.NewPlanUseCase(subRepo, logger)
	orderUC := usecase.NewOrderUseCase(orderRepo, subRepo, tokens, tm, logger)
	paymentUC := usecase.NewPaymentUseCase(payRepo, orderRepo, userRepo, provider, model.Currency(cfg.Payment.Currency), logger)
	webhookUC := usecase.NewWebhookUseCase(verifier, provider, locker, cfg.Payment.WebhookLockTTL, tm, payRepo, orderRepo, subRepo, userRepo, logger)

	// ---- Stale payment sweeper ----
	if cfg.Payment.ReconcileInterval > 0 {
		sweeper := sched.NewPaymentReconciler(webhookUC, payRepo, cfg.Payment.ReconcileInterval, cfg.Payment.ReconcileStaleAfter, cfg.Payment.ReconcileMaxAge, logger)
		go func() { _ = sweeper.Run(ctx) }()
	}

	// ---- HTTP ----
	ipLimiter := api.NewIPLimiter(cfg.HTTP.AuthRPS, cfg.HTTP.AuthBurst, logger)
	if err := ipLimiter.TrustProxies(cfg.HTTP.TrustedProxies); err != nil {
		return fmt.Errorf("http.trusted_proxies: %w", err)
	}
	v1 := apiv1.NewServer(userUC, planUC, orderUC, paymentUC, webhookUC, apiv1.Options{
		AuthGuard:      ipLimiter.Middleware(),
		Limiter:        red.NewRateLimiter(redisClient),
		UserRateLimit:  cfg.HTTP.UserRateLimit,
		UserRateWindow: cfg.HTTP.UserRateWindow,
	}, logger)
	handler := api.NewRouter(v1, cfg.HTTP.RequestTimeout, logger, map[string]api.HealthCheck{
		"postgres": pool.Ping,
		"redis":    redisClient.Ping,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("provider", provider.Name()).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func reportPoolStats(ctx context.Context, pool *pgxpool.Pool) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s := pool.Stat()
			metrics.SetDBPoolStats(s.TotalConns(), s.IdleConns(), s.AcquiredConns())
		}
	}
}
