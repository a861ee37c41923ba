package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"mockdata-subscription/internal/config"
	"mockdata-subscription/internal/domain/model"
	pg "mockdata-subscription/internal/infra/db/postgres"
	"mockdata-subscription/internal/infra/logging"
	"mockdata-subscription/internal/usecase"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	monthly := flag.String("monthly", "1000.00", "Monthly plan price")
	annual := flag.String("annual", "10000.00", "Annual plan price")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)

	prices := map[model.SubscriptionType]decimal.Decimal{}
	for name, raw := range map[model.SubscriptionType]string{model.SubscriptionMonthly: *monthly, model.SubscriptionAnnual: *annual} {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			logger.Fatal().Err(err).Str("plan", string(name)).Msg("invalid price")
		}
		prices[name] = d
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.Database.MigrateOnBoot {
		if err := pg.MigrateUp(cfg.Database.URL, logger); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// seed straight to Postgres; the cache expires on its own TTL
	planUC := usecase.NewPlanUseCase(pg.NewSubscriptionRepo(pool), logger)
	plans, err := planUC.Seed(ctx, prices)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed catalog")
	}
	for _, p := range plans {
		fmt.Printf("seeded: %s (id=%s, price=%s)\n", p.Name, p.ID, p.Price.StringFixed(2))
	}
}
