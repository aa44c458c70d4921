package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chainwatch/price-compare/config"
	"github.com/chainwatch/price-compare/internal/store"
	"github.com/chainwatch/price-compare/internal/store/pgstore"
	"github.com/chainwatch/price-compare/internal/store/sqlitestore"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *zerolog.Logger
	dataStore store.Store
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "price-compare",
	Short: "price-compare CLI - grocery price ingestion and comparison tool",
	Long: `A CLI tool for ingesting Israeli grocery chain price data and
comparing cart prices across branches. Supports the Shufersal and
Victory chain adapters.`,
	PersistentPreRunE: persistentPreRun,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml or ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
	}
}

// persistentPreRun runs before each command and initializes dependencies.
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "help" || cmd.Name() == "completion" {
		return nil
	}

	logger = initLogger()

	cmdNeedsStore := cmd.Name() == "ingest" || cmd.Name() == "discover"
	if cmdNeedsStore {
		if cfg == nil {
			return fmt.Errorf("config required for %s command but not loaded", cmd.Name())
		}
		if err := initStore(); err != nil {
			return fmt.Errorf("store initialization failed: %w", err)
		}
		logger.Info().Msg("data store connected")
	}

	return nil
}

func initLogger() *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if cfg != nil && cfg.Logging.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
			level = parsed
		}
	}

	var output io.Writer
	noColor := false
	if cfg != nil {
		noColor = cfg.Logging.NoColor
	}
	output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: noColor}

	log := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &log
}

func initStore() error {
	ctx := context.Background()
	var err error
	if cfg.Database.UseOracle {
		dataStore, err = pgstore.Open(ctx, cfg.Database.URL, pgstore.DefaultConfig())
	} else {
		dataStore, err = sqlitestore.Open(cfg.Database.URL)
	}
	return err
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
