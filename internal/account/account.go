// Package account holds the signed-in customer's views: saved addresses,
// order history, the wishlist, profile edits and product reviews.
//
// Each view follows the same rule as the cart: one request per action,
// then a re-fetch (or, where the API returns the changed record, a local
// update), with a notice for the outcome.
package account

import (
	"context"
	"log/slog"

	"storefront/internal/notice"
)

// Options configures the account views.
type Options struct {
	Notifier notice.Notifier
	Logger   *slog.Logger
}

type base struct {
	notifier notice.Notifier
	logger   *slog.Logger
}

func newBase(opts Options) base {
	b := base{notifier: opts.Notifier, logger: opts.Logger}
	if b.notifier == nil {
		b.notifier = notice.Discard
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

func (b base) notify(ctx context.Context, level notice.Level, code, msg string) {
	notice.Deliver(ctx, b.notifier, notice.Notice{Level: level, Code: code, Message: msg})
}
