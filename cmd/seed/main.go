package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Skotchmaster/snakeoil/internal/config"
	"github.com/Skotchmaster/snakeoil/internal/db"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	"github.com/Skotchmaster/snakeoil/internal/repo"
	"github.com/Skotchmaster/snakeoil/internal/search"
	"github.com/Skotchmaster/snakeoil/internal/service"
)

func main() {
	silent := flag.Bool("silent", false, "do not print the generated credentials")
	flag.Parse()

	if err := run(*silent); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(silent bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logging.IntoContext(ctx, logger)

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	store := repo.NewGormRepo(gdb)
	seeder := &service.Seeder{Products: store, Users: store}
	if len(cfg.ESURL) > 0 {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			return err
		}
		seeder.Index = search.NewESIndex(es, cfg.ESIndex)
	}

	products, err := seeder.SeedProducts(ctx)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	logger.Info("demo products seeded", "count", len(products))

	creds, err := seeder.SeedUsers(ctx)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	logger.Info("demo users seeded", "count", len(creds))

	if !silent {
		for _, c := range creds {
			fmt.Printf("%s\t%s\n", c.Username, c.Password)
		}
	}
	return nil
}
