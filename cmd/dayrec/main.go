// Package main implements the dayrec CLI: reconcile one user-day from a
// local SQLite database and print the verified timeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/dayrec-dev/dayrec/pkg/apps"
	"github.com/dayrec-dev/dayrec/pkg/dayrec"
	"github.com/dayrec-dev/dayrec/pkg/render"
	"github.com/dayrec-dev/dayrec/pkg/store"
	"github.com/dayrec-dev/dayrec/pkg/verify"
)

// envConfig holds the settings that usually live in the environment rather
// than on the command line.
type envConfig struct {
	DBPath        string `env:"DAYREC_DB" env-default:"dayrec.db"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL"`
	OverridesPath string `env:"DAYREC_APP_OVERRIDES"`
}

var (
	dbPath      = flag.String("db", "", "SQLite database path (or set DAYREC_DB)")
	userID      = flag.String("user", "", "User ID to reconcile")
	date        = flag.String("date", "", "Local day as YYYY-MM-DD (default: today)")
	overrides   = flag.String("overrides", "", "YAML file with per-user app classification overrides")
	strict      = flag.Bool("strict", false, "Use strict verification thresholds")
	lenient     = flag.Bool("lenient", false, "Use lenient verification thresholds")
	summary     = flag.Bool("summary", false, "Generate an AI recap of the day (needs GEMINI_API_KEY)")
	minDuration = flag.Int("min-duration", 0, "Drop resolved timeline segments shorter than this many minutes")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("dayrec CLI v0.3.0")
		return
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	var env envConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		logger.Error("reading environment", "error", err)
		os.Exit(1)
	}
	if *dbPath == "" {
		*dbPath = env.DBPath
	}
	if *overrides == "" {
		*overrides = env.OverridesPath
	}
	if *userID == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -user <id> [flags]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	day := *date
	if day == "" {
		day = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		logger.Error("invalid date", "date", day, "error", err)
		os.Exit(1)
	}

	if err := run(logger, env, day); err != nil {
		logger.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, env envConfig, day string) error {
	ctx := context.Background()

	db, err := store.Open(*dbPath, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("closing store", "error", err)
		}
	}()

	appOverrides, err := apps.LoadOverrides(*overrides)
	if err != nil {
		return fmt.Errorf("load app overrides: %w", err)
	}

	thresholds := verify.DefaultThresholds
	switch {
	case *strict:
		thresholds = verify.StrictThresholds
	case *lenient:
		thresholds = verify.LenientThresholds
	}

	rec := dayrec.New(db,
		dayrec.WithLogger(logger),
		dayrec.WithThresholds(thresholds),
		dayrec.WithOverrides(appOverrides),
		dayrec.WithMinDuration(*minDuration),
	)

	res, err := rec.Reconcile(ctx, *userID, day)
	if err != nil {
		return err
	}
	render.Day(os.Stdout, res)

	if *summary {
		opts := []dayrec.SummarizerOption{dayrec.WithSummaryLogger(logger)}
		if env.GeminiModel != "" {
			opts = append(opts, dayrec.WithSummaryModel(env.GeminiModel))
		}
		s := dayrec.NewSummarizer(env.GeminiAPIKey, opts...)
		recap, err := s.Summarize(ctx, res)
		if err != nil {
			logger.Warn("summary unavailable", "error", err)
			return nil
		}
		render.Summary(os.Stdout, recap)
	}
	return nil
}
