package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"partyup/internal/bot"
	"partyup/internal/config"
	"partyup/internal/interest"
	"partyup/internal/llm"
	"partyup/internal/logging"
	"partyup/internal/matching"
	"partyup/internal/similarity"
	"partyup/internal/store"
)

var version = "1.2.0"

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd runs the bot.
var rootCmd = &cobra.Command{
	Use:   "partyup",
	Short: "partyup - Telegram game partner matching bot",
	Long: `partyup matches players by the games they love.

Users describe what they play in a Telegram chat; the bot extracts game
keywords with an LLM, stores them in PostgreSQL, and recommends recently
active players with overlapping or similar tastes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		opts := logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			File:   cfg.Logging.File,
		}
		if verbose {
			opts.Level = "debug"
		}
		logger, err = logging.New(opts)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot(cmd.Context())
	},
}

// migrateCmd applies the database schema and exits.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Database.URL == "" {
			return fmt.Errorf("database URL not configured (set DATABASE_URL)")
		}

		s, err := store.Open(cmd.Context(), cfg.Database.URL, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		return s.Migrate(cmd.Context())
	},
}

// versionCmd prints the build version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the partyup version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("partyup %s\n", version)
	},
}

func runBot(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := store.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Migrate(ctx); err != nil {
		return err
	}

	client := llm.NewOpenAIClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.TimeoutDuration(),
	}, logger)

	engine := similarity.NewEngine(client, s, logger)
	defer engine.Wait()

	matcher := matching.NewMatcher(s, engine, matching.Options{
		Threshold:         cfg.Matching.Threshold,
		MinPairSimilarity: cfg.Matching.MinPairSimilarity,
		MaxMatches:        cfg.Matching.MaxMatches,
		MaxParallel:       cfg.Matching.MaxParallel,
		CandidateWindow:   cfg.Database.CandidateWindowDuration(),
	}, logger)

	b, err := bot.New(
		cfg.Telegram.Token,
		cfg.Telegram.PollTimeoutDuration(),
		cfg.Telegram.MaxInFlight,
		interest.NewExtractor(client, logger),
		s,
		matcher,
		matching.NewReasoner(client, logger),
		logger,
	)
	if err != nil {
		return err
	}

	logger.Info("starting partyup",
		zap.String("version", version),
		zap.String("model", client.Model()))
	return b.Run(ctx)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
