package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fitledger/fitledger/internal/domain"
)

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(spendCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(rewardsCmd)
	rootCmd.AddCommand(historyCmd)
	rewardsCmd.AddCommand(rewardsConvertCmd)
}

// ─── status ─────────────────────────────────────────────────────────────────

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Reconcile against today and show the ledger",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	view, advisory, err := s.svc.Open(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Today:            %s\n", view.Today)
	fmt.Fprintf(os.Stdout, "Balance:          %d\n", view.Balance)
	fmt.Fprintf(os.Stdout, "Rewards:          %s\n", view.RewardsBalance)
	fmt.Fprintf(os.Stdout, "Today's amount:   %d\n", view.TodayAmount)
	fmt.Fprintf(os.Stdout, "Applied this run: %+d\n", view.AppliedThisOpen)
	fmt.Fprintf(os.Stdout, "Epoch:            %s\n", view.EpochDate)
	fmt.Fprintf(os.Stdout, "Reconciled thru:  %s\n", view.LastReconciled)
	if view.DailyRate > 0 {
		fmt.Fprintf(os.Stdout, "Daily rate:       %d\n", view.DailyRate)
	}
	if advisory != "" {
		fmt.Fprintf(os.Stdout, "\n⚠️  %s\n", advisory)
	}
	return nil
}

// ─── spend / add ────────────────────────────────────────────────────────────

var spendCmd = &cobra.Command{
	Use:   "spend [N]",
	Short: "Spend tokens (records N reps for today, default 1)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSpend,
}

func runSpend(cmd *cobra.Command, args []string) error {
	n := int64(1)
	if len(args) == 1 {
		parsed, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("spend amount must be a positive integer, got %q", args[0])
		}
		n = parsed
	}
	return adjust(cmd, -n)
}

var addCmd = &cobra.Command{
	Use:   "add N",
	Short: "Add tokens manually (half also lands in rewards)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	n, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || n <= 0 {
		return fmt.Errorf("add amount must be a positive integer, got %q", args[0])
	}
	return adjust(cmd, n)
}

func adjust(cmd *cobra.Command, amount int64) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	ctx := cmd.Context()
	state, err := s.svc.Ensure(ctx)
	if err != nil {
		return err
	}
	// Catch up first so the guard sees today's credited balance.
	res, err := s.svc.ReconcileNow(ctx, state)
	if err != nil {
		return err
	}

	updated, advisory, err := s.svc.AdjustBy(ctx, res.State, amount)
	if err != nil {
		if domain.IsValidation(err) {
			fmt.Fprintf(os.Stdout, "%v — balance stays at %d\n", err, res.State.Balance)
			return nil
		}
		return err
	}

	fmt.Fprintf(os.Stdout, "Balance: %d (%+d)\n", updated.Balance, amount)
	if amount > 0 && !updated.RewardsBalance.Equal(res.State.RewardsBalance) {
		fmt.Fprintf(os.Stdout, "Rewards: %s\n", updated.RewardsBalance)
	}
	if advisory != "" {
		fmt.Fprintf(os.Stdout, "⚠️  %s\n", advisory)
	}
	return nil
}

// ─── rate ───────────────────────────────────────────────────────────────────

var rateCmd = &cobra.Command{
	Use:   "rate N",
	Short: "Set the daily drain rate",
	Args:  cobra.ExactArgs(1),
	RunE:  runRate,
}

func runRate(cmd *cobra.Command, args []string) error {
	rate, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("rate must be an integer, got %q", args[0])
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	state, err := s.svc.Ensure(cmd.Context())
	if err != nil {
		return err
	}
	updated, err := s.svc.SetDailyRate(cmd.Context(), state, rate)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Daily rate set to %d\n", updated.DailyRate)
	return nil
}

// ─── rewards ────────────────────────────────────────────────────────────────

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "Manage the rewards balance",
}

var rewardsConvertCmd = &cobra.Command{
	Use:   "convert AMOUNT",
	Short: "Debit AMOUNT from the rewards balance",
	Args:  cobra.ExactArgs(1),
	RunE:  runRewardsConvert,
}

func runRewardsConvert(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return fmt.Errorf("amount must be a number, got %q", args[0])
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	state, err := s.svc.Ensure(cmd.Context())
	if err != nil {
		return err
	}
	updated, err := s.svc.ConvertRewards(cmd.Context(), state, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Rewards: %s\n", updated.RewardsBalance)
	return nil
}

// ─── history ────────────────────────────────────────────────────────────────

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show per-day rep history",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	entries, err := s.svc.History().ListActivity(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "No reps recorded yet.")
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%s  %d\n", e.Date, e.Reps)
	}

	sum, err := s.svc.History().Summary(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nTotal: %d reps across %d days", sum.TotalReps, sum.ActiveDays)
	if sum.BestDay != nil {
		fmt.Fprintf(os.Stdout, " (best: %d on %s)", sum.BestDay.Reps, sum.BestDay.Date)
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
