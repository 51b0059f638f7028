package main

import (
	"database/sql"
	"fmt"

	"github.com/isdelr/userexport/internal/config"
	"github.com/isdelr/userexport/internal/database"
	"github.com/isdelr/userexport/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "userexport-admin",
	Short: "Manage user export operators and run exports offline",
	Long: `userexport-admin works directly against the user database.

Configuration is read the same way as the server (CONFIG_PATH and
environment variables); --db overrides the database path.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.DatabasePath = dbPath
			cfg.ReplicaPath = dbPath
		}
		logger.Init(cfg.LogLevel)
		return nil
	},
}

var (
	// Global flags that apply to all commands
	dbPath string

	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database file path (default from DATABASE_PATH)")
	rootCmd.AddCommand(useraddCmd, exportCmd)
}

// openDB opens and migrates the read-write database.
func openDB() (*sql.DB, error) {
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}
