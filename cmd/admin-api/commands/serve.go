package commands

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"ecommerce/admin-api/internal/dashboard"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Start the admin API server.

Examples:
  admin-api serve                  # listen on PORT (default 8080)
  admin-api serve --port 9090      # explicit port`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (defaults to PORT env, then 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	port := servePort
	if port == "" {
		port = dashboard.Env("PORT", "8080")
	}

	svc := newService()
	defer svc.Close()

	srv := svc.Server(port)
	log.Printf("admin-api listening on :%s", port)
	return srv.ListenAndServe()
}

// newService opens the database when one is configured and reachable, and
// degrades to memory mode otherwise so the API stays up.
func newService() *dashboard.Service {
	secret := dashboard.Env("WEBHOOK_SECRET", "")
	if secret == "" {
		log.Printf("warn: WEBHOOK_SECRET not set, webhook signatures will not verify")
	}

	db, err := dashboard.ConnectDB()
	if err != nil {
		log.Printf("warn: database unavailable, running in memory mode: %v", err)
		return dashboard.New(nil, secret)
	}

	svc := dashboard.New(db, secret)
	if err := svc.EnsureSchema(context.Background()); err != nil {
		log.Printf("warn: schema setup failed, using memory mode: %v", err)
		_ = svc.Close()
		return dashboard.New(nil, secret)
	}
	return svc
}
