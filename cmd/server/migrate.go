package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/iliyamo/event-participation/internal/config"
	"github.com/iliyamo/event-participation/internal/database"
)

var migratePrint bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migratePrint {
			fmt.Fprint(cmd.OutOrStdout(), database.Schema())
			return nil
		}
		cfg := config.Load()
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		log.Printf("schema applied to %s", cfg.DBName)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migratePrint, "print", false, "print the schema instead of applying it")
}
