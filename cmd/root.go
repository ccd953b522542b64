package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"hospital-app-server/internal/config"
	"hospital-app-server/internal/models"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "hospital-app-server",
	Short: "Hospital appointment scheduling and booking API.",
	Long: `hospital-app-server serves doctor availability, appointment booking and
the appointment lifecycle for patients, doctors and administrators.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Optional; .env and the environment are always read.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (yaml, json or toml)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newTokenCommand())
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	return config.LoadConfig(path)
}

// openDB connects to the configured database. Migration is left to the caller.
func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := models.InitDB(models.DatabaseConfig{
		Driver:     cfg.Database.Driver,
		DSN:        cfg.Database.DSN,
		LogQueries: cfg.Database.LogQueries,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	return db, nil
}
