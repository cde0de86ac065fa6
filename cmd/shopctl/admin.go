package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"storefront/internal/admin"
	"storefront/internal/model"
)

func (a *app) panel() *admin.Panel {
	return admin.New(a.client, a.session, admin.Options{Notifier: a.notifier, Logger: a.logger})
}

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage products, orders, coupons and categories",
		Long:  `Admin commands require an account with the ADMIN role.`,
	}
	cmd.AddCommand(
		newAdminProductsCmd(a),
		newAdminOrdersCmd(a),
		newAdminStatsCmd(a),
		newAdminCouponsCmd(a),
		newAdminCategoriesCmd(a),
	)
	return cmd
}

func newAdminProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			p := a.panel()
			if err := p.LoadProducts(ctx); err != nil {
				return err
			}
			if a.asJSON {
				return printJSON(a.out, p.Products())
			}
			printProducts(a, p.Products())
			return nil
		}),
	}

	var (
		in           model.ProductInput
		price        string
		comparePrice string
		categoryID   int
	)
	save := func(ctx context.Context, id int) error {
		in.Price = model.Money(model.ParseCents(price))
		if comparePrice != "" {
			cp := model.Money(model.ParseCents(comparePrice))
			in.ComparePrice = &cp
		}
		if categoryID > 0 {
			in.CategoryID = &categoryID
		}
		product, err := a.panel().SaveProduct(ctx, id, in)
		if err != nil {
			return err
		}
		printInfo("Product ID %d", product.ID)
		return nil
	}
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			return save(ctx, 0)
		}),
	}
	edit := &cobra.Command{
		Use:   "edit <product-id>",
		Short: "Replace a product's fields",
		Args:  cobra.ExactArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "product ID")
			if err != nil {
				return err
			}
			return save(ctx, id)
		}),
	}
	for _, c := range []*cobra.Command{add, edit} {
		c.Flags().StringVar(&in.Name, "name", "", "product name")
		c.Flags().StringVar(&in.Description, "description", "", "description")
		c.Flags().StringVar(&price, "price", "", "price")
		c.Flags().StringVar(&comparePrice, "compare-price", "", "original price shown struck through")
		c.Flags().IntVar(&in.Stock, "stock", 0, "units in stock")
		c.Flags().StringVar(&in.ImageURL, "image", "", "image URL")
		c.Flags().StringVar(&in.Brand, "brand", "", "brand")
		c.Flags().StringVar(&in.SKU, "sku", "", "SKU")
		c.Flags().BoolVar(&in.IsFeatured, "featured", false, "show on the home page")
		c.Flags().IntVar(&categoryID, "category", 0, "category ID")
	}

	rm := &cobra.Command{
		Use:   "rm <product-id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "product ID")
			if err != nil {
				return err
			}
			return a.panel().DeleteProduct(ctx, id)
		}),
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}

func newAdminOrdersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List all orders",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			p := a.panel()
			if err := p.LoadOrders(ctx); err != nil {
				return err
			}
			if a.asJSON {
				return printJSON(a.out, p.Orders())
			}
			printOrders(a, p.Orders())
			return nil
		}),
	}
	status := &cobra.Command{
		Use:   "status <order-id> <status>",
		Short: "Set an order's status (PLACED, PROCESSING, SHIPPED, DELIVERED, CANCELLED)",
		Args:  cobra.ExactArgs(2),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "order ID")
			if err != nil {
				return err
			}
			return a.panel().SetOrderStatus(ctx, id, model.OrderStatus(args[1]))
		}),
	}
	cmd.AddCommand(status)
	return cmd
}

func newAdminStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show order statistics",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			stats, err := a.panel().Stats(ctx)
			if err != nil {
				return err
			}
			if a.asJSON {
				return printJSON(a.out, stats)
			}
			heading(a.out, "Orders")
			fmt.Fprintf(a.out, "  Total:   %d\n", stats.TotalOrders)
			fmt.Fprintf(a.out, "  Revenue: %s%s%s\n", colorGreen, money(stats.TotalRevenue), colorReset)
			statuses := make([]model.OrderStatus, 0, len(stats.StatusBreakdown))
			for s := range stats.StatusBreakdown {
				statuses = append(statuses, s)
			}
			slices.Sort(statuses)
			for _, s := range statuses {
				fmt.Fprintf(a.out, "  %-20s %d\n", statusColor(s), stats.StatusBreakdown[s])
			}
			if len(stats.RecentOrders) > 0 {
				fmt.Fprintln(a.out)
				heading(a.out, "Recent")
				printOrders(a, stats.RecentOrders)
			}
			return nil
		}),
	}
}

func newAdminCouponsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coupons",
		Short: "List coupons",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			p := a.panel()
			if err := p.LoadCoupons(ctx); err != nil {
				return err
			}
			coupons := p.Coupons()
			if a.asJSON {
				return printJSON(a.out, coupons)
			}
			tw := newTable(a.out, "ID", "CODE", "TERMS", "USED", "ACTIVE")
			for _, c := range coupons {
				used := fmt.Sprint(c.TimesUsed)
				if c.UsageLimit != nil {
					used += fmt.Sprintf("/%d", *c.UsageLimit)
				}
				tw.Row(c.ID, c.Code, c.Describe(), used, c.IsActive)
			}
			tw.Flush()
			return nil
		}),
	}

	var (
		in          model.CouponInput
		kind        string
		minOrder    string
		maxDiscount string
		usageLimit  int
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a coupon",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			in.DiscountType = model.DiscountType(kind)
			in.MinOrderAmount = model.Money(model.ParseCents(minOrder))
			if maxDiscount != "" {
				m := model.Money(model.ParseCents(maxDiscount))
				in.MaxDiscount = &m
			}
			if usageLimit > 0 {
				in.UsageLimit = &usageLimit
			}
			coupon, err := a.panel().CreateCoupon(ctx, in)
			if err != nil {
				return err
			}
			printInfo("%s: %s", coupon.Code, coupon.Describe())
			return nil
		}),
	}
	add.Flags().StringVar(&in.Code, "code", "", "coupon code")
	add.Flags().StringVar(&kind, "type", string(model.DiscountPercent), "percent or flat")
	add.Flags().Float64Var(&in.DiscountValue, "value", 0, "percent off, or flat amount")
	add.Flags().StringVar(&minOrder, "min-order", "", "minimum order subtotal")
	add.Flags().StringVar(&maxDiscount, "max-discount", "", "discount cap for percent coupons")
	add.Flags().IntVar(&usageLimit, "limit", 0, "maximum number of uses")

	rm := &cobra.Command{
		Use:   "rm <coupon-id>",
		Short: "Delete a coupon",
		Args:  cobra.ExactArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "coupon ID")
			if err != nil {
				return err
			}
			return a.panel().DeleteCoupon(ctx, id)
		}),
	}

	cmd.AddCommand(add, rm)
	return cmd
}

func newAdminCategoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: a.loggedIn(func(ctx context.Context, _ []string) error {
			p := a.panel()
			if err := p.LoadCategories(ctx); err != nil {
				return err
			}
			if a.asJSON {
				return printJSON(a.out, p.Categories())
			}
			tw := newTable(a.out, "ID", "NAME", "SLUG", "PRODUCTS")
			for _, c := range p.Categories() {
				tw.Row(c.ID, c.Name, c.Slug, c.ProductCount)
			}
			tw.Flush()
			return nil
		}),
	}

	var (
		in       model.CategoryInput
		parentID int
	)
	save := &cobra.Command{
		Use:   "save [category-id]",
		Short: "Create a category, or update one when an ID is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id := 0
			if len(args) == 1 {
				n, err := intArg(args[0], "category ID")
				if err != nil {
					return err
				}
				id = n
			}
			if parentID > 0 {
				in.ParentID = &parentID
			}
			_, err := a.panel().SaveCategory(ctx, id, in)
			return err
		}),
	}
	save.Flags().StringVar(&in.Name, "name", "", "category name")
	save.Flags().StringVar(&in.Description, "description", "", "description")
	save.Flags().StringVar(&in.ImageURL, "image", "", "image URL")
	save.Flags().IntVar(&parentID, "parent", 0, "parent category ID")

	rm := &cobra.Command{
		Use:   "rm <category-id>",
		Short: "Delete a category",
		Args:  cobra.ExactArgs(1),
		RunE: a.loggedIn(func(ctx context.Context, args []string) error {
			id, err := intArg(args[0], "category ID")
			if err != nil {
				return err
			}
			return a.panel().DeleteCategory(ctx, id)
		}),
	}

	cmd.AddCommand(save, rm)
	return cmd
}
