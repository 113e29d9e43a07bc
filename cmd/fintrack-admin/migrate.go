package main

import (
	"fmt"

	"fintrack/internal/cli"
	"fintrack/internal/storage"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.Info("Running migrations", "db_path", dbPath())
			if err := storage.RunMigrations(dbPath()); err != nil {
				return err
			}
			return printVersion(cmd)
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			logger.Warn("Rolling back migrations", "db_path", dbPath(), "steps", steps)
			if err := storage.RollbackMigrations(dbPath(), steps); err != nil {
				return err
			}
			return printVersion(cmd)
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersion(cmd)
		},
	})

	return cmd
}

func printVersion(cmd *cobra.Command) error {
	v, dirty, err := storage.MigrationVersion(dbPath())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case dirty:
		fmt.Fprintln(out, cli.ErrorStyle.Render(fmt.Sprintf("schema version %d (dirty)", v)))
	case v == 0:
		fmt.Fprintln(out, cli.SubtleStyle.Render("no migrations applied"))
	default:
		fmt.Fprintln(out, cli.SuccessStyle.Render(fmt.Sprintf("schema version %d", v)))
	}
	return nil
}
