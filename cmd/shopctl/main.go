// shopctl is a command-line storefront client: browse the catalog, manage
// the cart, apply coupons, check out and review orders. The login session
// is kept in SESSION_FILE between invocations.
//
// Examples:
//
//	shopctl login --email asha@example.com
//	shopctl products --search lamp --sort price_low
//	shopctl cart add 12 2
//	shopctl coupon apply WELCOME10
//	shopctl checkout --payment UPI
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/spf13/cobra"

	"storefront/internal/account"
	"storefront/internal/api"
	"storefront/internal/config"
	"storefront/internal/notice"
	"storefront/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{out: os.Stdout}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		if !a.errorShown {
			printError("%v", err)
		}
		os.Exit(1)
	}
}

// app is the wiring shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *api.Client
	session  *session.Session
	notifier notice.Notifier
	out      io.Writer

	// errorShown is set once an error notice has been printed, so the
	// returned error is not reported twice.
	errorShown bool
	muted      atomic.Bool

	apiURL  string
	noColor bool
	quiet   bool
	verbose bool
	asJSON  bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "shopctl",
		Short: "Storefront command-line client",
		Long: `shopctl talks to the storefront API: catalog, cart, coupons,
checkout, orders, wishlist, addresses and the admin panel.

The session is stored in SESSION_FILE (default ~/.storefront/session.json).
Set NO_COLOR or pass --no-color to disable colored output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api", "", "storefront API base URL (overrides API_BASE_URL)")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "only print results")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log API calls to stderr")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newRegisterCmd(a),
		newWhoamiCmd(a),
		newProductsCmd(a),
		newProductCmd(a),
		newHomeCmd(a),
		newCartCmd(a),
		newCouponCmd(a),
		newCheckoutCmd(a),
		newOrdersCmd(a),
		newWishlistCmd(a),
		newAddressCmd(a),
		newProfileCmd(a),
		newAdminCmd(a),
	)
	return root
}

// setup loads configuration, builds the API client and restores the
// persisted session.
func (a *app) setup(ctx context.Context) error {
	if a.noColor || os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
	quiet = a.quiet

	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIBaseURL = a.apiURL
	}
	a.cfg = cfg

	a.client, err = api.New(api.Options{
		BaseURL:           cfg.APIBase(),
		ChromeTLS:         cfg.ChromeTLS,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            a.logger,
	})
	if err != nil {
		return err
	}

	a.session = session.New(a.client, session.FilePersister{Path: cfg.SessionFile}, a.logger)
	a.client.SetAuth(a.session, a.session.HandleUnauthorized)
	a.notifier = notice.Func(func(n notice.Notice) {
		if a.muted.Load() {
			return
		}
		if n.Level == notice.Error {
			a.errorShown = true
		}
		printNotice(n)
	})

	if err := a.session.Init(ctx); err != nil && !errors.Is(err, session.ErrNoSession) {
		printWarning("Session expired, please log in again")
	}
	return nil
}

func (a *app) accountOptions() account.Options {
	return account.Options{Notifier: a.notifier, Logger: a.logger}
}

// requireLogin fails unless a session is active.
func (a *app) requireLogin() error {
	if !a.session.IsAuthenticated() {
		return errors.New("not logged in; run 'shopctl login' first")
	}
	return nil
}
