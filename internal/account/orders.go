package account

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/notice"
)

// ErrNotCancellable is returned for orders past PROCESSING.
var ErrNotCancellable = errors.New("order can no longer be cancelled")

// Orders is the customer's order history.
type Orders struct {
	base
	api backend.Account

	mu     sync.Mutex
	orders []model.Order
}

// NewOrders creates an empty order history. Call Load to fill it.
func NewOrders(api backend.Account, opts Options) *Orders {
	return &Orders{base: newBase(opts), api: api, orders: []model.Order{}}
}

// Load fetches the history, newest first as the API sends it.
func (o *Orders) Load(ctx context.Context) error {
	orders, err := o.api.Orders(ctx)
	if err != nil {
		o.notify(ctx, notice.Error, "orders_load_failed", "Failed to load orders")
		return fmt.Errorf("loading orders: %w", err)
	}
	o.mu.Lock()
	o.orders = orders
	o.mu.Unlock()
	return nil
}

// List returns a copy of the loaded orders.
func (o *Orders) List() []model.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]model.Order{}, o.orders...)
}

// Get fetches one order with its items.
func (o *Orders) Get(ctx context.Context, id int) (*model.Order, error) {
	order, err := o.api.Order(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading order %d: %w", id, err)
	}
	return order, nil
}

// Cancel moves a PLACED or PROCESSING order to CANCELLED. Other statuses
// are refused without a request when the order is in the loaded list.
func (o *Orders) Cancel(ctx context.Context, id int) error {
	o.mu.Lock()
	for _, ord := range o.orders {
		if ord.ID == id && !ord.Status.Cancellable() {
			o.mu.Unlock()
			return ErrNotCancellable
		}
	}
	o.mu.Unlock()

	if _, err := o.api.SetOrderStatus(ctx, id, model.OrderCancelled); err != nil {
		o.notify(ctx, notice.Error, "order_cancel_failed", model.UserMessage(err, "Failed to cancel"))
		return fmt.Errorf("cancelling order %d: %w", id, err)
	}
	o.notify(ctx, notice.Success, "order_cancelled", "Order cancelled")

	o.mu.Lock()
	for i := range o.orders {
		if o.orders[i].ID == id {
			o.orders[i].Status = model.OrderCancelled
		}
	}
	o.mu.Unlock()
	return nil
}
