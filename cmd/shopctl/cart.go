package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/reconcile"
)

// orchestrator returns a checkout orchestrator for this invocation.
func (a *app) orchestrator() *checkout.Orchestrator {
	return checkout.New(a.client, checkout.Options{Notifier: a.notifier, Logger: a.logger})
}

// withSavedCoupon re-applies the coupon saved by 'coupon apply' with
// notices muted. A code the server rejects is forgotten.
func (a *app) withSavedCoupon(ctx context.Context, o *checkout.Orchestrator) {
	code := a.savedCoupon()
	if code == "" {
		return
	}
	a.muted.Store(true)
	_, err := o.ApplyCoupon(ctx, code)
	a.muted.Store(false)
	if err == nil {
		return
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.FromServer {
		printWarning("Saved coupon %s no longer applies: %s", code, apiErr.Message)
		a.clearCoupon()
		return
	}
	printWarning("Could not apply saved coupon %s", code)
}

func (a *app) couponFile() string {
	return filepath.Join(filepath.Dir(a.cfg.SessionFile), "coupon")
}

func (a *app) savedCoupon() string {
	data, err := os.ReadFile(a.couponFile())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (a *app) saveCoupon(code string) error {
	if err := os.MkdirAll(filepath.Dir(a.couponFile()), 0o700); err != nil {
		return err
	}
	return os.WriteFile(a.couponFile(), []byte(code+"\n"), 0o600)
}

func (a *app) clearCoupon() {
	if err := os.Remove(a.couponFile()); err != nil && !errors.Is(err, os.ErrNotExist) {
		printWarning("could not remove saved coupon: %v", err)
	}
}

func newCartCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and edit the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.showCart(cmd.Context())
		},
	}

	// mutate loads the cart, applies fn to the line for the first
	// argument and prints the result.
	mutate := func(use, short string, nargs cobra.PositionalArgs, fn func(ctx context.Context, o *checkout.Orchestrator, id int, rest []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  nargs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.requireLogin(); err != nil {
					return err
				}
				ctx := cmd.Context()
				id, err := intArg(args[0], "product ID")
				if err != nil {
					return err
				}
				o := a.orchestrator()
				if err := o.LoadCart(ctx); err != nil {
					return err
				}
				if err := fn(ctx, o, id, args[1:]); err != nil {
					return err
				}
				return a.printCart(ctx, o)
			},
		}
	}

	cmd.AddCommand(
		mutate("add <product-id> [quantity]", "Add a product to the cart", cobra.RangeArgs(1, 2),
			func(ctx context.Context, o *checkout.Orchestrator, id int, rest []string) error {
				qty := 1
				if len(rest) == 1 {
					n, err := strconv.Atoi(rest[0])
					if err != nil {
						return fmt.Errorf("invalid quantity %q", rest[0])
					}
					qty = n
				}
				return o.AddLine(ctx, id, qty)
			}),
		mutate("set <product-id> <quantity>", "Set a line quantity", cobra.ExactArgs(2),
			func(ctx context.Context, o *checkout.Orchestrator, id int, rest []string) error {
				qty, err := strconv.Atoi(rest[0])
				if err != nil {
					return fmt.Errorf("invalid quantity %q", rest[0])
				}
				return o.SetLineQuantity(ctx, id, qty)
			}),
		mutate("inc <product-id>", "Increase a line quantity by one", cobra.ExactArgs(1),
			func(ctx context.Context, o *checkout.Orchestrator, id int, _ []string) error {
				return o.Increment(ctx, id)
			}),
		mutate("dec <product-id>", "Decrease a line quantity by one", cobra.ExactArgs(1),
			func(ctx context.Context, o *checkout.Orchestrator, id int, _ []string) error {
				return o.Decrement(ctx, id)
			}),
		mutate("rm <product-id>", "Remove a line", cobra.ExactArgs(1),
			func(ctx context.Context, o *checkout.Orchestrator, id int, _ []string) error {
				return o.RemoveLine(ctx, id)
			}),
		newCartSyncCmd(a),
	)
	return cmd
}

func newCartSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <product-id>=<quantity>...",
		Short: "Make the cart match the given lines exactly",
		Long: `Sync replaces the cart contents: lines not listed are removed, listed
lines are added or updated. With no arguments the cart is emptied.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			desired, err := parseDesired(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			o := a.orchestrator()
			if err := o.LoadCart(ctx); err != nil {
				return err
			}
			diff, err := o.SyncLines(ctx, desired)
			if err != nil {
				return err
			}
			printInfo("%d added, %d updated, %d removed", len(diff.ToAdd), len(diff.ToUpdate), len(diff.ToRemove))
			return a.printCart(ctx, o)
		},
	}
}

func parseDesired(args []string) ([]reconcile.DesiredLine, error) {
	lines := make([]reconcile.DesiredLine, 0, len(args))
	for _, arg := range args {
		idStr, qtyStr, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid line %q, want <product-id>=<quantity>", arg)
		}
		id, err := intArg(idStr, "product ID")
		if err != nil {
			return nil, err
		}
		qty, err := strconv.Atoi(qtyStr)
		if err != nil || qty < 1 {
			return nil, fmt.Errorf("invalid quantity in %q", arg)
		}
		lines = append(lines, reconcile.DesiredLine{ProductID: id, Quantity: qty})
	}
	return lines, nil
}

func (a *app) showCart(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	o := a.orchestrator()
	if err := o.LoadCart(ctx); err != nil {
		return err
	}
	return a.printCart(ctx, o)
}

// printCart applies the saved coupon and prints the cart with totals.
func (a *app) printCart(ctx context.Context, o *checkout.Orchestrator) error {
	a.withSavedCoupon(ctx, o)
	v := o.View()
	if a.asJSON {
		return printJSON(a.out, v)
	}
	if v.Empty() {
		printInfo("Your cart is empty")
		return nil
	}
	tw := newTable(a.out, "ID", "PRODUCT", "QTY", "PRICE", "TOTAL")
	for _, l := range v.Lines {
		name := "(unavailable)"
		if l.Product != nil {
			name = l.Product.Name
		}
		tw.Row(l.ProductID, name, l.Quantity, money(l.UnitPrice()), money(l.LineTotal()))
	}
	tw.Flush()
	printTotals(a, v)
	return nil
}

func printTotals(a *app, v checkout.View) {
	fmt.Fprintf(a.out, "\n  Subtotal (%d items): %s\n", v.ItemCount, money(v.Subtotal))
	if applied := v.Coupon.Application; applied != nil {
		fmt.Fprintf(a.out, "  Coupon %s%s%s: %s-%s%s\n", colorCyan, applied.Code, colorReset, colorGreen, money(v.Discount), colorReset)
	}
	fmt.Fprintf(a.out, "  %sTotal: %s%s\n", colorBold, money(v.FinalTotal), colorReset)
}
