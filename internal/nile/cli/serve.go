package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nile-security/nile/internal/nile/api"
	"github.com/nile-security/nile/internal/nile/config"
	"github.com/nile-security/nile/internal/nile/leaderboard"
	"github.com/nile-security/nile/internal/nile/notify"
	"github.com/nile-security/nile/internal/nile/store"
)

var (
	serveConfig  string
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the NILE scoring service",
	Long: `Starts the HTTP scoring service: accepts scan evidence, computes
and persists NILE scores, maintains the trust leaderboard, and
announces scoring events to Discord.

Configuration is read from the config file (default nile.yml), then
overridden by NILE_* environment variables.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "nile.yml", "Path to config file")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Run database migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(serveConfig)
	if err != nil {
		// A missing default config file is fine: env overrides alone can
		// configure the service. An explicit --config path must exist.
		if !errors.Is(err, os.ErrNotExist) || cmd.Flags().Changed("config") {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg, err = config.Load("")
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL required (config database_url or NILE_DATABASE_URL)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveMigrate {
		logger.Info("running database migrations")
		if err := store.Migrate(ctx, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrating database: %w", err)
		}
	}

	st, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	index := leaderboard.NewIndex()
	if err := warmIndex(ctx, st, index); err != nil {
		logger.Warn("warming leaderboard from store", "error", err)
	} else {
		logger.Info("leaderboard warmed", "contracts", index.Count())
	}

	notifier := notify.NewNotifier(cfg.Discord.FeedWebhookURL, cfg.Discord.AlertsWebhookURL, logger)

	srv := api.NewServer(api.Config{
		Addr:    cfg.ListenAddr,
		Weights: cfg.ScoreWeights(),
	}, st, notifier, index, logger)

	return srv.Start(ctx)
}

// warmIndex seeds the in-memory leaderboard with the latest persisted
// score per contract, so rankings survive restarts.
func warmIndex(ctx context.Context, st *store.Store, index *leaderboard.Index) error {
	recs, err := st.LatestPerContract(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		name, err := st.ContractName(ctx, rec.Address)
		if err != nil {
			name = ""
		}
		index.Upsert(leaderboard.Entry{
			Address:       rec.Address,
			Name:          name,
			Grade:         rec.Result.Grade,
			TotalScore:    rec.Result.TotalScore,
			NameScore:     rec.Result.NameScore,
			ImageScore:    rec.Result.ImageScore,
			LikenessScore: rec.Result.LikenessScore,
			EssenceScore:  rec.Result.EssenceScore,
			ScoredAt:      rec.ScoredAt,
		})
	}
	return nil
}
