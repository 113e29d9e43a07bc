package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	logger  = log.New(log.Config{Component: log.ComponentAdmin, Output: os.Stderr})
	rootCmd = &cobra.Command{
		Use:               "fintrack-admin",
		Short:             "Maintenance commands for the fintrack database",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./fintrack.yaml)")
	rootCmd.PersistentFlags().String("db", "./data/fintrack.db", "SQLite database path")
	rootCmd.PersistentFlags().String("timezone", "Local", "zone used for month boundaries")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("sqlite_db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("timezone", rootCmd.PersistentFlags().Lookup("timezone"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(reportCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig layers flags over FINTRACK_* env vars over an optional yaml file.
func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("fintrack")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("FINTRACK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	level, err := config.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return err
	}
	format := viper.GetString("log_format")
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log format: %s", format)
	}
	logger = log.New(log.Config{
		Level:     level,
		Format:    format,
		Component: log.ComponentAdmin,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return nil
}

func dbPath() string {
	return viper.GetString("sqlite_db_path")
}

func location() (*time.Location, error) {
	loc, err := time.LoadLocation(viper.GetString("timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	return loc, nil
}

// openLedger opens the database (applying pending migrations) without an
// event publisher.
func openLedger() (*services.Ledger, *time.Location, error) {
	loc, err := location()
	if err != nil {
		return nil, nil, err
	}
	repo, err := storage.NewSQLiteRepository(dbPath(), storage.WithLocation(loc))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return services.NewLedger(repo, nil), loc, nil
}
