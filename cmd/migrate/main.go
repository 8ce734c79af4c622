package main

import (
	"fmt"
	"os"

	"github.com/novelnest/backend/internal/config"
	"github.com/novelnest/backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the NovelNest schema migrations",
		Long:  "Runs the migrations embedded in the binary against the database configured by DATABASE_* variables or .env.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.Load()
			if err := config.ReadFile(); err != nil {
				logrus.WithError(err).Info("Config file not found, using environment")
			}
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newMigrationCommand("up", "Apply all pending migrations"),
		newMigrationCommand("down", "Roll back the most recent migration"),
		newMigrationCommand("version", "Print the current schema version"),
	)
	return cmd
}

func newMigrationCommand(command, short string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.InitDB(database.GetConfig())
			if err != nil {
				return err
			}
			defer db.Close()

			logrus.WithField("command", command).Info("Starting migration")
			if err := database.Migrate(db, command); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Migration finished successfully")
			return nil
		},
	}
}
