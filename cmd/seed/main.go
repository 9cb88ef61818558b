package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jordanlanch/realtycrm/config"
	"github.com/jordanlanch/realtycrm/pkg/auth"
	"github.com/jordanlanch/realtycrm/pkg/database"
	"github.com/jordanlanch/realtycrm/pkg/deals"
	"github.com/jordanlanch/realtycrm/pkg/leads"
	"github.com/jordanlanch/realtycrm/pkg/logger"
	"github.com/jordanlanch/realtycrm/pkg/properties"
	"github.com/jordanlanch/realtycrm/pkg/tasks"
	"github.com/jordanlanch/realtycrm/pkg/testdata"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a development database with fake CRM data",
	}
	rootCmd.AddCommand(dataCmd(), tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dataCmd() *cobra.Command {
	var (
		counts testdata.SeedCounts
		seed   int64
		agents []string
	)

	cmd := &cobra.Command{
		Use:   "data",
		Short: "Create leads, properties, deals and tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to seed a production database")
			}
			ctx := cmd.Context()
			log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: logger.FormatText})

			db, err := database.NewClient(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			seeder := &testdata.Seeder{
				Gen:        testdata.NewGenerator(seed, time.Now()),
				Agents:     agents,
				Leads:      leads.NewService(db, nil, log),
				Properties: properties.NewService(db, nil, log),
				Deals:      deals.NewService(db, nil, log),
				Tasks:      tasks.NewService(db, nil, log),
			}
			done, err := seeder.Seed(ctx, counts)
			fmt.Printf("%-12s %d\n%-12s %d\n%-12s %d\n%-12s %d\n",
				"leads", done.Leads, "properties", done.Properties, "deals", done.Deals, "tasks", done.Tasks)
			return err
		},
	}

	cmd.Flags().IntVar(&counts.Leads, "leads", 40, "Number of leads")
	cmd.Flags().IntVar(&counts.Properties, "properties", 30, "Number of properties")
	cmd.Flags().IntVar(&counts.Deals, "deals", 15, "Number of deals (capped by leads and properties)")
	cmd.Flags().IntVar(&counts.Tasks, "tasks", 40, "Number of tasks")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().StringSliceVar(&agents, "agents", []string{"agent-1", "agent-2", "agent-3"}, "Agent user ids to assign records to")

	return cmd
}

func tokenCmd() *cobra.Command {
	var hours int

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Print a development JWT for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to issue tokens in production")
			}
			token, err := auth.GenerateJWT(args[0], args[0]+"@realtycrm.local", "agent", cfg.JWTSecret, hours)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24*7, "Token lifetime in hours")

	return cmd
}
