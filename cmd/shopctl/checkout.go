package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/reconcile"
)

func newCouponCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coupon",
		Short: "Apply, remove and list coupons",
		Long: `The applied coupon is remembered between commands and revalidated
against the cart subtotal every time the cart is shown.`,
	}

	apply := &cobra.Command{
		Use:   "apply <code>",
		Short: "Validate a coupon against the cart and keep it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx := cmd.Context()
			o := a.orchestrator()
			if err := o.LoadCart(ctx); err != nil {
				return err
			}
			applied, err := o.ApplyCoupon(ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.saveCoupon(applied.Code); err != nil {
				printWarning("coupon applied but not saved: %v", err)
			}
			v := o.View()
			if a.asJSON {
				return printJSON(a.out, v)
			}
			fmt.Fprintf(a.out, "  %s\n", applied.Coupon.Describe())
			printTotals(a, v)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm",
		Short: "Remove the applied coupon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code := a.savedCoupon()
			if code == "" {
				printInfo("No coupon applied")
				return nil
			}
			a.clearCoupon()
			printSuccess("Coupon %s removed", code)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List available coupons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coupons, err := a.client.Coupons(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading coupons: %s", model.UserMessage(err, "Failed to load coupons"))
			}
			if a.asJSON {
				return printJSON(a.out, coupons)
			}
			if len(coupons) == 0 {
				printInfo("No coupons available")
				return nil
			}
			saved := a.savedCoupon()
			tw := newTable(a.out, "CODE", "TERMS", "")
			for _, c := range coupons {
				mark := ""
				if c.Code == saved {
					mark = colorGreen + "applied" + colorReset
				}
				tw.Row(c.Code, c.Describe(), mark)
			}
			tw.Flush()
			return nil
		},
	}

	cmd.AddCommand(apply, rm, list)
	return cmd
}

func newCheckoutCmd(a *app) *cobra.Command {
	var (
		addressID int
		noAddress bool
		payment   string
		coupon    string
		yes       bool
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Review the cart and place the order",
		Long: `Checkout loads the cart, your saved addresses and coupons, shows the
order summary and places the order. The default address is used unless
--address or --no-address is given. Payment is COD, CARD or UPI.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx := cmd.Context()
			o := a.orchestrator()
			if err := o.Open(ctx); err != nil {
				return err
			}

			switch {
			case noAddress:
				o.ClearAddress()
			case addressID > 0:
				if err := o.SelectAddress(addressID); err != nil {
					return fmt.Errorf("address %d is not one of your saved addresses", addressID)
				}
			}
			if err := o.SelectPaymentMethod(model.PaymentMethod(payment)); err != nil {
				return err
			}
			if reconcile.CouponChanged(a.savedCoupon(), coupon) {
				if _, err := o.ApplyCoupon(ctx, coupon); err != nil {
					return err
				}
			} else {
				a.withSavedCoupon(ctx, o)
			}

			v := o.View()
			if v.Empty() {
				printInfo("Your cart is empty")
				return nil
			}
			if !a.asJSON {
				printSummary(a, v)
			}
			if !yes && !confirm("Place order?") {
				printInfo("Order not placed")
				return nil
			}

			order, err := o.PlaceOrder(ctx)
			if err != nil {
				return err
			}
			a.clearCoupon()
			if a.asJSON {
				return printJSON(a.out, order)
			}
			fmt.Fprintf(a.out, "  Order ID: %s#%d%s\n", colorGreen, order.ID, colorReset)
			fmt.Fprintf(a.out, "  Total:    %s\n", money(order.TotalPrice))
			return nil
		},
	}
	cmd.Flags().IntVar(&addressID, "address", 0, "saved address ID to ship to")
	cmd.Flags().BoolVar(&noAddress, "no-address", false, "place the order without an address")
	cmd.Flags().StringVar(&payment, "payment", string(model.PaymentCOD), "payment method (COD, CARD, UPI)")
	cmd.Flags().StringVar(&coupon, "coupon", "", "coupon code (defaults to the applied coupon)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "place without confirmation")
	cmd.MarkFlagsMutuallyExclusive("address", "no-address")
	return cmd
}

func printSummary(a *app, v checkout.View) {
	heading(a.out, "Order summary")
	for _, l := range v.Lines {
		name := "(unavailable)"
		if l.Product != nil {
			name = l.Product.Name
		}
		fmt.Fprintf(a.out, "  %d x %s  %s\n", l.Quantity, name, money(l.LineTotal()))
	}
	if addr, ok := v.SelectedAddress(); ok {
		fmt.Fprintf(a.out, "\n  Ship to: %s\n", formatAddress(addr))
	} else {
		fmt.Fprintf(a.out, "\n  Ship to: %s(no address)%s\n", colorGray, colorReset)
	}
	fmt.Fprintf(a.out, "  Payment: %s\n", v.PaymentMethod)
	printTotals(a, v)
}

// confirm asks a yes/no question on stderr.
func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
