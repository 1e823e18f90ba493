package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bankdesk/events"
)

func newDepositCommand(opts *options) *cobra.Command {
	return newMovementCommand(opts, "deposit", "Put money into one of your accounts",
		func(a *app) func(context.Context, string, decimal.Decimal, string) error { return a.ledger.Deposit },
		"Deposited")
}

func newWithdrawCommand(opts *options) *cobra.Command {
	return newMovementCommand(opts, "withdraw", "Take money out of one of your accounts",
		func(a *app) func(context.Context, string, decimal.Decimal, string) error { return a.ledger.Withdraw },
		"Withdrew")
}

func newMovementCommand(opts *options, use, short string,
	op func(*app) func(context.Context, string, decimal.Decimal, string) error, verb string) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   use + " NUMBER AMOUNT",
		Short: short,
		Long:  short + `.

AMOUNT must be positive with at most two decimal places. Arguments after
"--" are never read as flags.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			s, err := opts.session(ctx, a)
			if err != nil {
				return err
			}
			acc, err := ownedAccount(ctx, a, s, args[0])
			if err != nil {
				return err
			}
			if err := op(a)(ctx, acc.Number, amount, description); err != nil {
				return err
			}
			updated, err := a.ledger.GetAccount(ctx, acc.Number)
			if err != nil {
				return err
			}
			out := opts.printer(cmd)
			if out.json {
				return out.encode(updated)
			}
			out.success("%s %s %s. Balance: %s %s", verb, amount.StringFixed(2), acc.Currency,
				updated.Balance.StringFixed(2), updated.Currency)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description for the ledger")
	return cmd
}

func newTransferCommand(opts *options) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "transfer FROM TO AMOUNT",
		Short: "Move money from one of your accounts to any account in the same currency",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := args[0], args[1]
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			s, err := opts.session(ctx, a)
			if err != nil {
				return err
			}
			src, err := ownedAccount(ctx, a, s, from)
			if err != nil {
				return err
			}
			if err := a.ledger.Transfer(ctx, from, to, amount, description); err != nil {
				return err
			}

			out := opts.printer(cmd)
			if out.json {
				return out.encode(map[string]string{
					"from": from, "to": to, "amount": amount.String(), "currency": src.Currency,
				})
			}
			recipient := to
			if owner, err := a.ledger.GetAccountOwner(ctx, to); err == nil && owner != nil {
				recipient = fmt.Sprintf("%s (%s %s)", to, owner.FirstName, owner.LastName)
			}
			out.success("Transferred %s %s to %s", amount.StringFixed(2), src.Currency, recipient)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Description for the ledger")
	return cmd
}

func newHistoryCommand(opts *options) *cobra.Command {
	var limit int
	var journal bool
	cmd := &cobra.Command{
		Use:   "history NUMBER",
		Short: "Show the latest transactions on one of your accounts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			s, err := opts.session(ctx, a)
			if err != nil {
				return err
			}
			acc, err := ownedAccount(ctx, a, s, args[0])
			if err != nil {
				return err
			}
			out := opts.printer(cmd)

			if journal {
				return printJournal(ctx, opts, out, acc.Number, limit)
			}
			txs, err := a.ledger.GetTransactions(ctx, acc.Number, limit)
			if err != nil {
				return err
			}
			return out.transactions(acc.Number, txs)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of transactions to show")
	cmd.Flags().BoolVar(&journal, "journal", false, "Read from the MongoDB journal instead of the ledger")
	return cmd
}

func printJournal(ctx context.Context, opts *options, out printer, number string, limit int) error {
	if opts.cfg.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is not set")
	}
	j, disconnect, err := events.ConnectJournal(ctx, opts.cfg.MongoURI, opts.cfg.MongoDatabase, opts.cfg.MongoCollection)
	if err != nil {
		return err
	}
	defer disconnect(context.Background())

	entries, err := j.History(ctx, number, limit)
	if err != nil {
		return err
	}
	if out.json {
		return out.encode(entries)
	}
	if len(entries) == 0 {
		out.warning("No journal entries for %s", number)
		return nil
	}
	out.section("Journal for " + number)
	for _, e := range entries {
		out.muted("%s  %-10s %12s  balance %12s  %s", e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Type, e.Amount.StringFixed(2), e.BalanceAfter.StringFixed(2), e.Description)
	}
	return nil
}
