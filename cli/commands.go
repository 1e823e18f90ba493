package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"bankdesk/models"
)

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", models.ErrInvalidAmount, s)
	}
	return d, nil
}

func newInitCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			opts.printer(cmd).success("Database ready (%s)", a.store.Dialect().Name)
			return nil
		},
	}
}

type sampleCustomer struct {
	profile   models.Profile
	password  string
	typ       models.AccountType
	overdraft int64
	opening   int64
}

var sampleCustomers = []sampleCustomer{
	{
		profile: models.Profile{
			FirstName: "Ivan", LastName: "Ivanov", DateOfBirth: "15.05.1990",
			Street: "Lenina st. 10", City: "Moscow", ZipCode: "101000", Country: "Russia",
			Phone: "+79161234567", Email: "ivanov@example.com", Username: "ivanov",
		},
		password:  "password123",
		typ:       models.Checking,
		overdraft: 5000,
		opening:   10000,
	},
	{
		profile: models.Profile{
			FirstName: "Maria", LastName: "Petrova", DateOfBirth: "22.08.1985",
			Street: "Mira ave. 25", City: "Saint Petersburg", ZipCode: "190000", Country: "Russia",
			Phone: "+78129876543", Email: "petrova@example.com", Username: "petrova",
		},
		password: "qwerty456",
		typ:      models.Savings,
		opening:  5000,
	},
}

func newSeedCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create two sample customers with funded RUB accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			out := opts.printer(cmd)

			for _, c := range sampleCustomers {
				id, err := a.identity.Register(ctx, c.profile, c.password)
				if errors.Is(err, models.ErrUsernameTaken) {
					out.warning("%s already exists, skipped", c.profile.Username)
					continue
				}
				if err != nil {
					return err
				}
				number, err := a.ledger.CreateAccount(ctx, id, c.typ, "RUB", decimal.NewFromInt(c.overdraft))
				if err != nil {
					return err
				}
				if err := a.ledger.Deposit(ctx, number, decimal.NewFromInt(c.opening), "Initial deposit"); err != nil {
					return err
				}
				out.success("%s / %s with %s account %s", c.profile.Username, c.password, c.typ, number)
			}
			return nil
		},
	}
}

func newRegisterCommand(opts *options) *cobra.Command {
	var p models.Profile
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new customer; --user and --password become the credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p.Username = opts.user
			id, err := a.identity.Register(ctx, p, opts.password)
			if err != nil {
				return err
			}
			out := opts.printer(cmd)
			if out.json {
				return out.encode(map[string]any{"id": id, "username": p.Username})
			}
			out.success("Registered %s (id %d)", p.Username, id)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.FirstName, "first-name", "", "First name")
	f.StringVar(&p.LastName, "last-name", "", "Last name")
	f.StringVar(&p.DateOfBirth, "birth-date", "", "Date of birth, e.g. 15.05.1990")
	f.StringVar(&p.Street, "street", "", "Street address")
	f.StringVar(&p.City, "city", "", "City")
	f.StringVar(&p.ZipCode, "zip", "", "Postal code")
	f.StringVar(&p.Country, "country", "", "Country")
	f.StringVar(&p.Phone, "phone", "", "Phone number")
	f.StringVar(&p.Email, "email", "", "Email address")
	return cmd
}

func newLoginCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check --user and --password",
		Args:  cobra.NoArgs,
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
			opts.printer(cmd).success("Welcome, %s %s!", s.User.FirstName, s.User.LastName)
			return nil
		},
	}
}

func newProfileCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in customer's details",
		Args:  cobra.NoArgs,
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
			p, err := a.identity.GetProfile(ctx, s.User.ID)
			if err != nil {
				return err
			}
			if p == nil {
				return models.ErrUserNotFound
			}
			return opts.printer(cmd).profile(p)
		},
	}
}

func newAccountsCommand(opts *options) *cobra.Command {
	list := func(cmd *cobra.Command, args []string) error {
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
		accounts, err := a.ledger.GetAccounts(ctx, s.User.ID)
		if err != nil {
			return err
		}
		return opts.printer(cmd).accounts(accounts)
	}

	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List, open and inspect accounts",
		Args:  cobra.NoArgs,
		RunE:  list,
	}
	cmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List your accounts", Args: cobra.NoArgs, RunE: list},
		newCreateAccountCommand(opts),
		newShowAccountCommand(opts),
	)
	return cmd
}

func newCreateAccountCommand(opts *options) *cobra.Command {
	var typ, currency, overdraft string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new account",
		Long: `Open a new zero-balance account.

Account types: Checking, Savings, Deposit. The overdraft limit is how far
below zero the balance may go; it is normally used with Checking accounts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := parseAmount(overdraft)
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
			number, err := a.ledger.CreateAccount(ctx, s.User.ID, models.AccountType(typ), currency, limit)
			if err != nil {
				return err
			}
			out := opts.printer(cmd)
			if out.json {
				return out.encode(map[string]string{"account_number": number})
			}
			out.success("Account opened: %s", number)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", string(models.Checking), "Account type: Checking, Savings or Deposit")
	f.StringVarP(&currency, "currency", "c", "RUB", "Currency code, e.g. RUB, USD, EUR")
	f.StringVar(&overdraft, "overdraft", "0", "Overdraft limit")
	return cmd
}

func newShowAccountCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show NUMBER",
		Short: "Show one of your accounts",
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
			return opts.printer(cmd).account(acc)
		},
	}
}

func newOwnerCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "owner NUMBER",
		Short: "Show who holds an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := opts.session(ctx, a); err != nil {
				return err
			}
			owner, err := a.ledger.GetAccountOwner(ctx, args[0])
			if err != nil {
				return err
			}
			if owner == nil {
				return fmt.Errorf("%w: %s", models.ErrAccountNotFound, args[0])
			}
			out := opts.printer(cmd)
			if out.json {
				return out.encode(owner)
			}
			out.info("%s belongs to %s %s (%s)", args[0], owner.FirstName, owner.LastName, owner.Username)
			return nil
		},
	}
}
