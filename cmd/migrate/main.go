package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"

	"mockdata-subscription/internal/config"
	pg "mockdata-subscription/internal/infra/db/postgres"
	"mockdata-subscription/internal/infra/logging"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, true)

	m, err := pg.NewMigrator(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("init migrations")
	}
	defer func() {
		if sErr, dErr := m.Close(); sErr != nil || dErr != nil {
			log.Warn().AnErr("source", sErr).AnErr("database", dErr).Msg("close migrator")
		}
	}()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err := m.Up()
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Info().Msg("no change: database is up to date")
		case err != nil:
			log.Fatal().Err(err).Msg("apply migrations")
		default:
			log.Info().Msg("migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			log.Fatal().Err(err).Msg("roll back last migration")
		}
		log.Info().Msg("last migration rolled back")

	case "goto":
		if flag.NArg() < 2 {
			log.Fatal().Msg("goto needs a version number")
		}
		version, err := strconv.ParseUint(flag.Arg(1), 10, 64)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid version")
		}
		err = m.Migrate(uint(version))
		switch {
		case errors.Is(err, migrate.ErrNoChange):
			log.Info().Uint64("version", version).Msg("no change: already at version")
		case err != nil:
			log.Fatal().Err(err).Uint64("version", version).Msg("migrate to version")
		default:
			log.Info().Uint64("version", version).Msg("migrated")
		}

	case "status":
		version, dirty, err := m.Version()
		switch {
		case errors.Is(err, migrate.ErrNilVersion):
			log.Info().Msg("no migrations applied yet")
		case err != nil:
			log.Fatal().Err(err).Msg("read version")
		default:
			log.Info().Uint("version", version).Bool("dirty", dirty).Msg("current version")
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("usage: migrate [-config path] <command>")
	fmt.Println("commands:")
	fmt.Println("  up            apply all pending migrations")
	fmt.Println("  down          roll back the last migration")
	fmt.Println("  goto VERSION  migrate to a specific version")
	fmt.Println("  status        show the current version")
}
