package cli

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/fitledger/fitledger/internal/api"
	"github.com/fitledger/fitledger/internal/infra/observability"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ledger HTTP API",
	Long: `Serve the ledger REST API for the dashboard. The dashboard's page load
hits GET /api/ledger, which reconciles elapsed days as a side effect — no
background scheduler runs here.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	if s.cfg.Metrics.Enabled {
		s.svc.SetMetrics(observability.New(prometheus.DefaultRegisterer))
	}

	server := api.NewServer(s.svc)
	if s.cfg.Metrics.Enabled {
		server.EnableMetrics()
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = s.cfg.API.Addr()
	}

	fmt.Fprintf(os.Stdout, "fitledger listening on http://%s\n", addr)
	log.Printf("store: %s, policy: %s", s.db.Path(), s.cfg.Policy.Variant)
	return http.ListenAndServe(addr, server.Handler())
}
