// Package cli is the terminal front end. Each invocation builds its own
// session from --user/--password and calls the identity and ledger services.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"bankdesk/config"
	"bankdesk/events"
	"bankdesk/identity"
	"bankdesk/ledger"
	"bankdesk/models"
	"bankdesk/store"
)

var errNotOwner = errors.New("account belongs to another customer")

// options holds the global flags, seeded from the environment.
type options struct {
	cfg *config.Config

	dbDriver   string
	dbURL      string
	user       string
	password   string
	logLevel   string
	logFormat  string
	jsonOutput bool

	log *slog.Logger
}

// app is what one command needs: the opened store and the services on it.
type app struct {
	store     *store.Store
	identity  *identity.Service
	ledger    *ledger.Service
	publisher events.Publisher
	closers   []func()
}

// NewRootCommand builds the bankdesk command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{cfg: config.LoadConfig()}

	root := &cobra.Command{
		Use:   "bankdesk",
		Short: "Terminal banking: customers, accounts and a transaction ledger",
		Long: `bankdesk manages customer records, bank accounts and a ledger of
deposits, withdrawals and transfers in a local SQLite file or PostgreSQL.

Commands that act for a customer authenticate with --user and --password
(or BANK_USER and BANK_PASSWORD).

Examples:
  bankdesk init
  bankdesk seed
  bankdesk --user ivanov --password password123 accounts
  bankdesk --user ivanov --password password123 transfer 40817810... 40817810... 500`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = config.NewLogger(cmd.ErrOrStderr(), opts.logLevel, opts.logFormat)
			slog.SetDefault(opts.log)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.dbDriver, "driver", opts.cfg.DBDriver, "Database driver: sqlite or postgres")
	flags.StringVar(&opts.dbURL, "db", opts.cfg.DatabaseURL, "SQLite file or PostgreSQL connection URL")
	flags.StringVarP(&opts.user, "user", "u", opts.cfg.User, "Username to act as")
	flags.StringVarP(&opts.password, "password", "p", opts.cfg.Password, "Password for --user")
	flags.StringVar(&opts.logLevel, "log-level", opts.cfg.LogLevel, "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", opts.cfg.LogFormat, "Log format: json or text")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	root.AddCommand(
		newInitCommand(opts),
		newSeedCommand(opts),
		newRegisterCommand(opts),
		newLoginCommand(opts),
		newProfileCommand(opts),
		newAccountsCommand(opts),
		newOwnerCommand(opts),
		newDepositCommand(opts),
		newWithdrawCommand(opts),
		newTransferCommand(opts),
		newHistoryCommand(opts),
		newServeCommand(opts),
		newRelayCommand(opts),
	)
	return root
}

// Execute runs the root command
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		printer{w: os.Stderr}.fail("%s", describe(err))
		os.Exit(1)
	}
}

func (o *options) printer(cmd *cobra.Command) printer {
	return printer{w: cmd.OutOrStdout(), json: o.jsonOutput}
}

func (o *options) logger() *slog.Logger {
	if o.log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.log
}

// open connects to the store, makes sure the schema exists and builds the
// services. A configured but unreachable broker is logged and skipped.
func (o *options) open(ctx context.Context) (*app, error) {
	st, err := store.Open(ctx, store.Config{Driver: o.dbDriver, URL: o.dbURL})
	if err != nil {
		return nil, err
	}
	if err := st.Init(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	a := &app{store: st, publisher: events.Discard{}}
	a.closers = append(a.closers, func() { st.Close() })

	log := o.logger()
	if o.cfg.RabbitMQURI != "" {
		mq, err := events.NewRabbitMQ(o.cfg.RabbitMQURI, o.cfg.RabbitMQQueue)
		if err != nil {
			log.Warn("ledger entries will not be published", "error", err)
		} else {
			a.publisher = mq
			a.closers = append(a.closers, mq.Close)
		}
	}

	a.identity = identity.NewService(st, identity.WithLogger(log), identity.WithHashCost(o.cfg.BcryptCost))
	a.ledger = ledger.NewService(st, ledger.WithLogger(log), ledger.WithPublisher(a.publisher))
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// session authenticates --user/--password.
func (o *options) session(ctx context.Context, a *app) (models.Session, error) {
	if o.user == "" {
		return models.Session{}, errors.New("--user and --password are required for this command")
	}
	u, err := a.identity.Authenticate(ctx, o.user, o.password)
	if err != nil {
		return models.Session{}, err
	}
	if u == nil {
		return models.Session{}, errors.New("invalid username or password")
	}
	return models.Session{User: *u}, nil
}

// ownedAccount loads an account and checks the session owns it.
func ownedAccount(ctx context.Context, a *app, s models.Session, number string) (*models.Account, error) {
	acc, err := a.ledger.GetAccount(ctx, number)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrAccountNotFound, number)
	}
	if !s.Owns(acc) {
		return nil, fmt.Errorf("%w: %s", errNotOwner, number)
	}
	return acc, nil
}

// describe turns an error into the line shown to the customer.
func describe(err error) string {
	var ife *models.InsufficientFundsError
	var cfe *models.CompensationFailedError
	switch {
	case errors.As(err, &cfe):
		return fmt.Sprintf("Transfer failed and %s could not be returned to account %s. Contact support.",
			cfe.Amount.StringFixed(2), cfe.Account)
	case errors.Is(err, models.ErrTransferFailed):
		return "Transfer failed: the recipient could not be credited and the debit was reversed."
	case errors.As(err, &ife):
		return fmt.Sprintf("Insufficient funds. Available: %s %s", ife.Available.StringFixed(2), ife.Currency)
	case errors.Is(err, models.ErrStorage):
		return "Storage error: " + err.Error()
	}
	return err.Error()
}
