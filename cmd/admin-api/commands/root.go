package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "admin-api",
	Short: "Multi-tenant storefront admin API",
	Long: `admin-api serves the management surface for multi-tenant storefronts:
stores, billboards, categories, colors, sizes, products, orders, a monthly
revenue graph, and the payment-completion webhook.

It runs against Postgres when DATABASE_URL (or DB_HOST) is set, and falls
back to an in-memory store otherwise.`,
	Version: "1.0.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
