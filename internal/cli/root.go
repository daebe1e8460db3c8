// Package cli implements the fitledger command line interface.
// Every command is a full session: load config, open the store, ensure the
// singleton, act, close. Reconciliation happens on open, exactly as the
// dashboard does it.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fitledger/fitledger/internal/app/history"
	"github.com/fitledger/fitledger/internal/app/ledger"
	"github.com/fitledger/fitledger/internal/daemon"
	"github.com/fitledger/fitledger/internal/infra/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "fitledger",
	Short: "Daily token ledger",
	Long: `fitledger tracks a single daily-accruing (or daily-draining) token balance.
Tokens follow a per-day schedule and catch up lazily whenever the ledger is
opened — there is no background scheduler. Spend tokens as you do your reps;
history accumulates per calendar day.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session bundles everything a command needs for one run.
type session struct {
	cfg daemon.Config
	db  *sqlite.DB
	svc *ledger.Service
}

// openSession loads config and opens the store.
// Callers must call close when done.
func openSession() (*session, error) {
	cfg, err := daemon.Load(daemon.ConfigPath())
	if err != nil {
		return nil, err
	}
	db, err := sqlite.Open(cfg.DataDir())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	lcfg, err := cfg.LedgerConfig()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &session{
		cfg: cfg,
		db:  db,
		svc: ledger.New(lcfg, db, history.New(db)),
	}, nil
}

func (s *session) close() {
	s.db.Close()
}
