package commands

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"ecommerce/admin-api/internal/dashboard"
)

var seedUserID string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo store with sample catalog data",
	Long: `Create a demo store owned by the given user, with a billboard,
categories, colors, sizes, products and one paid order.

Examples:
  admin-api seed --user user_demo`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSeed()
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedUserID, "user", "user_demo", "Owner user id for the seeded store")
	rootCmd.AddCommand(seedCmd)
}

func runSeed() error {
	db, err := dashboard.ConnectDB()
	if err != nil {
		return fmt.Errorf("seed needs a database: %w", err)
	}
	svc := dashboard.New(db, dashboard.Env("WEBHOOK_SECRET", ""))
	defer svc.Close()

	ctx := context.Background()
	if err := svc.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("schema setup: %w", err)
	}

	store, err := svc.SeedDemo(ctx, seedUserID)
	if err != nil {
		return err
	}
	log.Printf("seeded store %s (%s) for user %s", store.Name, store.ID, seedUserID)
	return nil
}
