package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"storefront/internal/catalog"
	"storefront/internal/model"
)

func newProductsCmd(a *app) *cobra.Command {
	var (
		f        catalog.Filter
		sort     string
		minPrice string
		maxPrice string
		page     int
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the catalog",
		Long: fmt.Sprintf(`Browse the catalog, 12 products per page.

Sort keys: %s`, sortKeys()),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f.Sort = catalog.Sort(sort).Normalize()
			f.MinPrice = model.Money(model.ParseCents(minPrice))
			f.MaxPrice = model.Money(model.ParseCents(maxPrice))

			b := catalog.NewBrowser(a.client, catalog.Options{Notifier: a.notifier, Logger: a.logger})
			if err := b.Open(ctx, f); err != nil {
				return err
			}
			if page > 1 {
				if err := b.GoTo(ctx, page); err != nil {
					return err
				}
			}
			l := b.Listing()
			if a.asJSON {
				return printJSON(a.out, l)
			}
			printListing(a, l)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.Search, "search", "s", "", "search text")
	cmd.Flags().IntVar(&f.CategoryID, "category", 0, "category ID")
	cmd.Flags().StringVar(&f.Brand, "brand", "", "brand name")
	cmd.Flags().StringVar(&sort, "sort", string(catalog.SortNewest), "sort key")
	cmd.Flags().StringVar(&minPrice, "min", "", "minimum price")
	cmd.Flags().StringVar(&maxPrice, "max", "", "maximum price")
	cmd.Flags().BoolVar(&f.Featured, "featured", false, "featured products only")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func sortKeys() string {
	keys := make([]string, len(catalog.Sorts))
	for i, s := range catalog.Sorts {
		keys[i] = fmt.Sprintf("%s (%s)", s, s.Label())
	}
	return strings.Join(keys, ", ")
}

func printListing(a *app, l catalog.Listing) {
	if len(l.Products) == 0 {
		printInfo("No products found")
		return
	}
	heading(a.out, fmt.Sprintf("%d products, sorted by %s", l.Total, l.Filter.Sort.Label()))
	printProducts(a, l.Products)
	if l.Pages > 1 {
		fmt.Fprintf(a.out, "\nPage %s of %d\n", pageWindow(l.Window, l.Page), l.Pages)
	}
	if share := catalog.ShareValues(l.Filter).Encode(); share != "" {
		printInfo("Share: ?%s", share)
	}
}

func printProducts(a *app, products []model.Product) {
	tw := newTable(a.out, "ID", "NAME", "BRAND", "PRICE", "STOCK")
	for _, p := range products {
		price := money(p.Price)
		if p.DiscountPercent > 0 {
			price += fmt.Sprintf(" (-%d%%)", p.DiscountPercent)
		}
		tw.Row(p.ID, p.Name, p.Brand, price, stockLabel(p))
	}
	tw.Flush()
}

func newProductCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show a product with reviews and related products",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg(args[0], "product ID")
			if err != nil {
				return err
			}
			var wishlist catalog.WishlistChecker
			if a.session.IsAuthenticated() {
				wishlist = a.client
			}
			d, err := catalog.ProductDetail(cmd.Context(), a.client, wishlist, id)
			if err != nil {
				return fmt.Errorf("product %d: %s", id, model.UserMessage(err, "Product not found"))
			}
			if a.asJSON {
				return printJSON(a.out, d)
			}
			printDetail(a, d)
			return nil
		},
	}
}

func printDetail(a *app, d *catalog.DetailPage) {
	p := d.Product
	heading(a.out, p.Name)
	if p.Brand != "" {
		fmt.Fprintf(a.out, "  Brand: %s\n", p.Brand)
	}
	price := colorGreen + money(p.Price) + colorReset
	if p.ComparePrice != nil && *p.ComparePrice > p.Price {
		price += fmt.Sprintf(" %s(was %s)%s", colorGray, money(*p.ComparePrice), colorReset)
	}
	fmt.Fprintf(a.out, "  Price: %s\n", price)
	fmt.Fprintf(a.out, "  Stock: %s\n", stockLabel(p))
	if d.InWishlist {
		fmt.Fprintf(a.out, "  %s♥ In your wishlist%s\n", colorRed, colorReset)
	}
	if p.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", p.Description)
	}

	r := d.Reviews
	fmt.Fprintf(a.out, "\n%sReviews%s: %.1f/5 from %d\n", colorBold, colorReset, r.AvgRating, r.TotalReviews)
	for _, rv := range r.Reviews {
		fmt.Fprintf(a.out, "  %s %s%s%s", strings.Repeat("★", rv.Rating), colorBold, rv.Title, colorReset)
		if rv.UserName != "" {
			fmt.Fprintf(a.out, " %s- %s%s", colorGray, rv.UserName, colorReset)
		}
		fmt.Fprintln(a.out)
		if rv.Comment != "" {
			fmt.Fprintf(a.out, "    %s\n", rv.Comment)
		}
	}

	if len(d.Related) > 0 {
		fmt.Fprintln(a.out)
		heading(a.out, "Related")
		printProducts(a, d.Related)
	}
}

func newHomeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "home",
		Short: "Show featured products, deals and categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := catalog.Home(cmd.Context(), a.client)
			if err != nil {
				return err
			}
			if a.asJSON {
				return printJSON(a.out, home)
			}
			if len(home.Featured) > 0 {
				heading(a.out, "Featured")
				printProducts(a, home.Featured)
				fmt.Fprintln(a.out)
			}
			if len(home.Deals) > 0 {
				heading(a.out, "Deals")
				printProducts(a, home.Deals)
				fmt.Fprintln(a.out)
			}
			if len(home.Categories) > 0 {
				heading(a.out, "Categories")
				tw := newTable(a.out)
				for _, c := range home.Categories {
					tw.Row(c.ID, c.Name, fmt.Sprintf("%d products", c.ProductCount))
				}
				tw.Flush()
			}
			return nil
		},
	}
}

// intArg parses a positive integer argument.
func intArg(s, what string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return n, nil
}
