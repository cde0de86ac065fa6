package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"storefront/internal/account"
	"storefront/internal/model"
)

// loggedIn wraps a RunE so it fails fast without a session.
func (a *app) loggedIn(run func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.requireLogin(); err != nil {
			return err
		}
		return run(cmd.Context(), args)
	}
}

func newOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, show and cancel orders",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			orders := account.NewOrders(a.client, a.accountOptions())
			if err := orders.Load(ctx); err != nil {
				return err
			}
			list := orders.List()
			if a.asJSON {
				return printJSON(a.out, list)
			}
			printOrders(a, list)
			return nil
		}),
	}

	show := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order with its items",
		Args:  cobra.ExactArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "order ID")
			if err != nil {
				return err
			}
			order, err := account.NewOrders(a.client, a.accountOptions()).Get(ctx, id)
			if err != nil {
				return fmt.Errorf("order %d: %s", id, model.UserMessage(err, "Order not found"))
			}
			if a.asJSON {
				return printJSON(a.out, order)
			}
			printOrder(a, order)
			return nil
		}),
	}

	cancel := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel a placed or processing order",
		Args:  cobra.ExactArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "order ID")
			if err != nil {
				return err
			}
			orders := account.NewOrders(a.client, a.accountOptions())
			if err := orders.Load(ctx); err != nil {
				return err
			}
			return orders.Cancel(ctx, id)
		}),
	}

	cmd.AddCommand(show, cancel)
	return cmd
}

func printOrders(a *app, orders []model.Order) {
	if len(orders) == 0 {
		printInfo("No orders yet")
		return
	}
	tw := newTable(a.out, "ID", "DATE", "ITEMS", "TOTAL", "PAYMENT", "STATUS")
	for _, o := range orders {
		tw.Row(fmt.Sprintf("#%d", o.ID), o.CreatedAt, len(o.Items), money(o.TotalPrice), o.PaymentMethod, statusColor(o.Status))
	}
	tw.Flush()
}

func printOrder(a *app, o *model.Order) {
	heading(a.out, fmt.Sprintf("Order #%d", o.ID))
	fmt.Fprintf(a.out, "  Status:  %s\n", statusColor(o.Status))
	if o.CreatedAt != "" {
		fmt.Fprintf(a.out, "  Placed:  %s\n", o.CreatedAt)
	}
	fmt.Fprintf(a.out, "  Payment: %s\n", o.PaymentMethod)
	if o.TrackingNumber != "" {
		fmt.Fprintf(a.out, "  Tracking: %s\n", o.TrackingNumber)
	}
	if o.ShippingAddress != nil {
		fmt.Fprintf(a.out, "  Ship to: %s\n", formatAddress(*o.ShippingAddress))
	}
	fmt.Fprintln(a.out)

	tw := newTable(a.out)
	for _, it := range o.Items {
		name := fmt.Sprintf("product %d", it.ProductID)
		if it.Product != nil {
			name = it.Product.Name
		}
		tw.Row(fmt.Sprintf("  %d x", it.Quantity), name, money(it.Price*model.Money(it.Quantity)))
	}
	tw.Flush()

	fmt.Fprintf(a.out, "\n  Subtotal: %s\n", money(o.Subtotal))
	if o.DiscountAmount > 0 {
		code := ""
		if o.CouponCode != "" {
			code = " (" + o.CouponCode + ")"
		}
		fmt.Fprintf(a.out, "  Discount%s: %s-%s%s\n", code, colorGreen, money(o.DiscountAmount), colorReset)
	}
	fmt.Fprintf(a.out, "  %sTotal: %s%s\n", colorBold, money(o.TotalPrice), colorReset)
	if o.Status.Cancellable() {
		printInfo("Cancel with: shopctl orders cancel %d", o.ID)
	}
}

func newWishlistCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wishlist",
		Short: "Manage saved products",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			w := account.NewWishlist(a.client, a.accountOptions())
			if err := w.Load(ctx); err != nil {
				return err
			}
			items := w.Items()
			if a.asJSON {
				return printJSON(a.out, items)
			}
			if len(items) == 0 {
				printInfo("Your wishlist is empty")
				return nil
			}
			tw := newTable(a.out, "ID", "NAME", "PRICE", "STOCK")
			for _, it := range items {
				if it.Product == nil {
					tw.Row(it.ProductID, "(unavailable)", "", "")
					continue
				}
				tw.Row(it.ProductID, it.Product.Name, money(it.Product.Price), stockLabel(*it.Product))
			}
			tw.Flush()
			return nil
		}),
	}

	action := func(use, short string, fn func(w *account.Wishlist, ctx context.Context, id int) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: a.loggedIn(func(ctx context.Context, args []string) error {
				id, err := intArg(args[0], "product ID")
				if err != nil {
					return err
				}
				return fn(account.NewWishlist(a.client, a.accountOptions()), ctx, id)
			}),
		}
	}

	cmd.AddCommand(
		action("add <product-id>", "Save a product", (*account.Wishlist).Add),
		action("rm <product-id>", "Remove a saved product", (*account.Wishlist).Remove),
		action("move <product-id>", "Move a saved product to the cart", (*account.Wishlist).MoveToCart),
	)
	return cmd
}

func newAddressCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "address",
		Aliases: []string{"addresses"},
		Short:   "Manage saved addresses",
		Args:    cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			book := account.NewAddressBook(a.client, a.accountOptions())
			if err := book.Load(ctx); err != nil {
				return err
			}
			addrs := book.Addresses()
			if a.asJSON {
				return printJSON(a.out, addrs)
			}
			if len(addrs) == 0 {
				printInfo("No saved addresses")
				return nil
			}
			tw := newTable(a.out, "ID", "LABEL", "ADDRESS", "")
			for _, ad := range addrs {
				mark := ""
				if ad.IsDefault {
					mark = colorGreen + "default" + colorReset
				}
				tw.Row(ad.ID, ad.Label, formatAddress(ad), mark)
			}
			tw.Flush()
			return nil
		}),
	}

	var in model.AddressInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Save a new address",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			addr, err := account.NewAddressBook(a.client, a.accountOptions()).Add(ctx, in)
			if err != nil {
				return err
			}
			printInfo("Address ID %d", addr.ID)
			return nil
		}),
	}
	addressFlags(add, &in)

	var upd model.AddressInput
	update := &cobra.Command{
		Use:   "update <address-id>",
		Short: "Replace a saved address",
		Args:  cobra.ExactArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "address ID")
			if err != nil {
				return err
			}
			_, err = account.NewAddressBook(a.client, a.accountOptions()).Update(ctx, id, upd)
			return err
		}),
	}
	addressFlags(update, &upd)

	rm := &cobra.Command{
		Use:   "rm <address-id>",
		Short: "Delete a saved address",
		Args:  cobra.ExactArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "address ID")
			if err != nil {
				return err
			}
			return account.NewAddressBook(a.client, a.accountOptions()).Delete(ctx, id)
		}),
	}

	def := &cobra.Command{
		Use:   "default <address-id>",
		Short: "Make an address the default",
		Args:  cobra.ExactArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "address ID")
			if err != nil {
				return err
			}
			book := account.NewAddressBook(a.client, a.accountOptions())
			if err := book.Load(ctx); err != nil {
				return err
			}
			if cur, ok := book.Default(); ok && cur.ID == id {
				printInfo("Address %d is already the default", id)
				return nil
			}
			return book.SetDefault(ctx, id)
		}),
	}

	cmd.AddCommand(add, update, rm, def)
	return cmd
}

func addressFlags(cmd *cobra.Command, in *model.AddressInput) {
	cmd.Flags().StringVar(&in.Label, "label", "Home", "label, e.g. Home or Work")
	cmd.Flags().StringVar(&in.FullName, "name", "", "recipient name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.AddressLine1, "line1", "", "street address")
	cmd.Flags().StringVar(&in.AddressLine2, "line2", "", "apartment, suite, etc.")
	cmd.Flags().StringVar(&in.City, "city", "", "city")
	cmd.Flags().StringVar(&in.State, "state", "", "state")
	cmd.Flags().StringVar(&in.ZipCode, "zip", "", "ZIP or postal code")
	cmd.Flags().StringVar(&in.Country, "country", "", "country")
	cmd.Flags().BoolVar(&in.IsDefault, "default", false, "make this the default address")
}
