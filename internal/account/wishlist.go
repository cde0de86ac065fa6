package account

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/notice"
)

// Wishlist is the saved-products list.
type Wishlist struct {
	base
	api backend.Account

	mu    sync.Mutex
	items []model.WishlistItem
}

// NewWishlist creates an empty wishlist. Call Load to fill it.
func NewWishlist(api backend.Account, opts Options) *Wishlist {
	return &Wishlist{base: newBase(opts), api: api, items: []model.WishlistItem{}}
}

// Load fetches the list.
func (w *Wishlist) Load(ctx context.Context) error {
	items, err := w.api.Wishlist(ctx)
	if err != nil {
		w.notify(ctx, notice.Error, "wishlist_load_failed", "Failed to load wishlist")
		return fmt.Errorf("loading wishlist: %w", err)
	}
	w.mu.Lock()
	w.items = items
	w.mu.Unlock()
	return nil
}

// Items returns a copy of the list.
func (w *Wishlist) Items() []model.WishlistItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.WishlistItem{}, w.items...)
}

// Contains asks the server whether productID is saved.
func (w *Wishlist) Contains(ctx context.Context, productID int) (bool, error) {
	in, err := w.api.InWishlist(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("checking wishlist: %w", err)
	}
	return in, nil
}

// Add saves a product, then re-fetches.
func (w *Wishlist) Add(ctx context.Context, productID int) error {
	if err := w.api.AddToWishlist(ctx, productID); err != nil {
		w.notify(ctx, notice.Error, "wishlist_action_failed", model.UserMessage(err, "Action failed"))
		return fmt.Errorf("adding to wishlist: %w", err)
	}
	w.notify(ctx, notice.Success, "wishlist_added", "Added to wishlist!")
	w.refresh(ctx)
	return nil
}

// Remove drops a product from the list.
func (w *Wishlist) Remove(ctx context.Context, productID int) error {
	if err := w.api.RemoveFromWishlist(ctx, productID); err != nil {
		w.notify(ctx, notice.Error, "wishlist_remove_failed", "Failed to remove")
		return fmt.Errorf("removing from wishlist: %w", err)
	}
	w.notify(ctx, notice.Info, "wishlist_removed", "Removed from wishlist")
	w.drop(productID)
	return nil
}

// Toggle adds or removes productID based on its current membership and
// returns the new membership.
func (w *Wishlist) Toggle(ctx context.Context, productID int) (bool, error) {
	in, err := w.Contains(ctx, productID)
	if err != nil {
		return false, err
	}
	if in {
		return false, w.Remove(ctx, productID)
	}
	return true, w.Add(ctx, productID)
}

// MoveToCart moves a saved product into the cart.
func (w *Wishlist) MoveToCart(ctx context.Context, productID int) error {
	if err := w.api.MoveWishlistToCart(ctx, productID); err != nil {
		w.notify(ctx, notice.Error, "wishlist_move_failed", model.UserMessage(err, "Failed to move"))
		return fmt.Errorf("moving to cart: %w", err)
	}
	w.notify(ctx, notice.Success, "wishlist_moved", "Moved to cart!")
	w.drop(productID)
	return nil
}

func (w *Wishlist) drop(productID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.items[:0:0]
	for _, it := range w.items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	w.items = kept
}

func (w *Wishlist) refresh(ctx context.Context) {
	items, err := w.api.Wishlist(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "wishlist refresh failed", slog.String("error", err.Error()))
		return
	}
	w.mu.Lock()
	w.items = items
	w.mu.Unlock()
}
