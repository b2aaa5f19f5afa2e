// curio-search browses the curio catalog from the terminal: a windowed
// listing, bookmark toggles and a global search overlay.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/MrSnakeDoc/curio/internal/client"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/tui"
	"github.com/MrSnakeDoc/curio/internal/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		baseURL   string
		token     string
		query     string
		filters   domain.FilterOptions
		sortBy    string
		sortOrder string
		freshFor  time.Duration
		timeout   time.Duration
	)

	flagSet := pflag.NewFlagSet("curio-search", pflag.ContinueOnError)
	flagSet.StringVar(&baseURL, "url", getenv("CURIO_API_URL", "http://localhost:8080"), "curio server URL (default $CURIO_API_URL)")
	flagSet.StringVar(&token, "token", os.Getenv("CURIO_TOKEN"), "bearer token enabling bookmarks (default $CURIO_TOKEN)")
	flagSet.StringVarP(&query, "query", "q", "", "initial free-text search")
	flagSet.StringSliceVar(&filters.Topics, "topic", nil, "topic filter, repeatable")
	flagSet.StringSliceVar(&filters.TagCategories, "category", nil, "category filter, repeatable")
	flagSet.StringSliceVar(&filters.TagSubcategories, "subcategory", nil, "subcategory filter, repeatable")
	flagSet.StringSliceVar(&filters.Difficulty, "difficulty", nil, "difficulty filter, repeatable")
	flagSet.StringSliceVar(&filters.ContentType, "type", nil, "content type filter, repeatable")
	flagSet.StringVar(&sortBy, "sort", string(domain.DefaultSortKey), "date_added | rating | title | difficulty")
	flagSet.StringVar(&sortOrder, "order", string(domain.DefaultSortOrder), "asc | desc")
	flagSet.DurationVar(&freshFor, "fresh-for", client.DefaultFreshFor, "how long catalog responses are reused")
	flagSet.DurationVar(&timeout, "timeout", 15*time.Second, "timeout of each API call")
	showVersion := flagSet.Bool("version", false, "print version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println(version.String("curio-search"))
		return nil
	}

	key, err := domain.ParseSortKey(sortBy)
	if err != nil {
		return err
	}
	order, err := domain.ParseSortOrder(sortOrder)
	if err != nil {
		return err
	}

	// The terminal belongs to the UI; nothing is logged.
	log := logger.Nop()

	api, err := client.New(client.Options{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		FreshFor:   freshFor,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tui.Run(ctx, tui.Config{
		Session:     tui.NewSession(api, log),
		Token:       token,
		Query:       query,
		Filters:     filters,
		SortBy:      key,
		SortOrder:   order,
		CallTimeout: timeout,
	})
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
