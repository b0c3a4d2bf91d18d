package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	Run: func(_ *cobra.Command, _ []string) {
		log := newLogger()

		config, err := getConfig()
		if err != nil {
			log.Fatal("getting a config", zap.Error(err))
		}
		if config.DatabaseURL == "" {
			log.Fatal("database-url (DATABASE_URL) is required to migrate")
		}

		if err := db.Migrate(context.Background(), config.DatabaseURL); err != nil {
			log.Fatal("migrating the database", zap.Error(err))
		}
		log.Info("database schema is up to date")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
