// curio-seed imports a YAML catalog file into the catalog tables of a
// development database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/MrSnakeDoc/curio/internal/catalog"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/sources/catalogfile"
	pgstore "github.com/MrSnakeDoc/curio/internal/store/postgres"
	"github.com/MrSnakeDoc/curio/internal/version"
)

type options struct {
	file        string
	databaseURL string
	replace     bool
	dryRun      bool
	timeout     time.Duration
	logLevel    string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options

	flagSet := pflag.NewFlagSet("curio-seed", pflag.ContinueOnError)
	flagSet.StringVarP(&opts.file, "file", "f", "db/seed/catalog.yaml", "catalog YAML file to import")
	flagSet.StringVar(&opts.databaseURL, "database-url", os.Getenv("CURIO_DATABASE_URL"), "Postgres connection string (default $CURIO_DATABASE_URL)")
	flagSet.BoolVar(&opts.replace, "replace", false, "delete existing rows before importing instead of upserting")
	flagSet.BoolVar(&opts.dryRun, "dry-run", false, "validate the file without touching the database")
	flagSet.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall time budget")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "debug | info | warn | error")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println(version.String("curio-seed"))
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	log := logger.New(opts.logLevel, true)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	return seed(ctx, opts, log)
}

func seed(ctx context.Context, opts options, log logger.Logger) error {
	cfg, err := catalogfile.NewLoader(opts.file).Load()
	if err != nil {
		return err
	}

	resources, err := catalogfile.NewMapper().MapResources(cfg.Resources)
	if err != nil {
		return fmt.Errorf("invalid resources in %s: %w", opts.file, err)
	}
	preview, err := catalogfile.NewMapper().MapResources(cfg.Preview)
	if err != nil {
		return fmt.Errorf("invalid preview entries in %s: %w", opts.file, err)
	}
	log.Info("catalog file parsed",
		logger.String("file", opts.file),
		logger.Int("resources", len(resources)),
		logger.Int("preview", len(preview)))

	if opts.dryRun {
		facets := catalog.OptionsOf(resources)
		log.Info("dry run, database left untouched",
			logger.Strings("topics", facets.Topics),
			logger.Strings("categories", facets.TagCategories),
			logger.Strings("difficulties", facets.Difficulties),
			logger.Strings("content_types", facets.ContentTypes))
		return nil
	}
	if opts.databaseURL == "" {
		return errors.New("no database: pass --database-url or set CURIO_DATABASE_URL")
	}

	pool, err := pgstore.NewConnectionPool(ctx, pgstore.PoolConfig{ConnStr: opts.databaseURL, MaxConns: 2})
	if err != nil {
		return err
	}
	defer pool.Close()

	storer := pgstore.NewStorer(pool)
	for _, batch := range []struct {
		table string
		rows  []domain.Resource
	}{
		{pgstore.TableResources, resources},
		{pgstore.TablePreview, preview},
	} {
		if err := write(ctx, storer, batch.table, batch.rows, opts.replace); err != nil {
			return err
		}
		log.Info("table seeded",
			logger.String("table", batch.table),
			logger.Int("rows", len(batch.rows)),
			logger.Bool("replace", opts.replace))
	}

	log.Info("✅ seed complete, run POST /api/revalidate to refresh a running server")
	return nil
}

func write(ctx context.Context, s *pgstore.Storer, table string, rows []domain.Resource, replace bool) error {
	if replace {
		_, err := s.ReplaceAll(ctx, table, rows)
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return s.Upsert(ctx, table, rows)
}
