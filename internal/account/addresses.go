package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/notice"
)

// AddressBook is the saved-address list.
type AddressBook struct {
	base
	api backend.Account

	mu        sync.Mutex
	addresses []model.Address
}

// NewAddressBook creates an empty AddressBook. Call Load to fill it.
func NewAddressBook(api backend.Account, opts Options) *AddressBook {
	return &AddressBook{base: newBase(opts), api: api, addresses: []model.Address{}}
}

// Load fetches the list.
func (b *AddressBook) Load(ctx context.Context) error {
	addrs, err := b.api.Addresses(ctx)
	if err != nil {
		return fmt.Errorf("loading addresses: %w", err)
	}
	b.mu.Lock()
	b.addresses = addrs
	b.mu.Unlock()
	return nil
}

// Addresses returns a copy of the list.
func (b *AddressBook) Addresses() []model.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Address{}, b.addresses...)
}

// Default returns the default address, if any.
func (b *AddressBook) Default() (model.Address, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.addresses {
		if a.IsDefault {
			return a, true
		}
	}
	return model.Address{}, false
}

// Add saves a new address, then re-fetches: the server may have moved the
// default to it.
func (b *AddressBook) Add(ctx context.Context, in model.AddressInput) (*model.Address, error) {
	if err := validateAddress(in); err != nil {
		return nil, err
	}
	addr, err := b.api.AddAddress(ctx, in)
	if err != nil {
		b.notify(ctx, notice.Error, "address_save_failed", model.UserMessage(err, "Failed to save"))
		return nil, fmt.Errorf("adding address: %w", err)
	}
	b.notify(ctx, notice.Success, "address_added", "Address added")
	b.refresh(ctx)
	return addr, nil
}

// Update edits an address, then re-fetches.
func (b *AddressBook) Update(ctx context.Context, id int, in model.AddressInput) (*model.Address, error) {
	if err := validateAddress(in); err != nil {
		return nil, err
	}
	addr, err := b.api.UpdateAddress(ctx, id, in)
	if err != nil {
		b.notify(ctx, notice.Error, "address_save_failed", model.UserMessage(err, "Failed to save"))
		return nil, fmt.Errorf("updating address %d: %w", id, err)
	}
	b.notify(ctx, notice.Success, "address_updated", "Address updated")
	b.refresh(ctx)
	return addr, nil
}

// Delete removes an address, then re-fetches; the server promotes another
// address when the default is deleted.
func (b *AddressBook) Delete(ctx context.Context, id int) error {
	if err := b.api.DeleteAddress(ctx, id); err != nil {
		b.notify(ctx, notice.Error, "address_delete_failed", "Failed to delete")
		return fmt.Errorf("deleting address %d: %w", id, err)
	}
	b.notify(ctx, notice.Info, "address_deleted", "Address deleted")
	if !b.refresh(ctx) {
		b.mu.Lock()
		kept := b.addresses[:0:0]
		for _, a := range b.addresses {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		b.addresses = kept
		b.mu.Unlock()
	}
	return nil
}

// SetDefault makes id the default address. Setting the current default is
// a no-op with no request. If the re-fetch fails the list is projected
// locally so exactly one address stays default.
func (b *AddressBook) SetDefault(ctx context.Context, id int) error {
	b.mu.Lock()
	for _, a := range b.addresses {
		if a.ID == id && a.IsDefault {
			b.mu.Unlock()
			return nil
		}
	}
	b.mu.Unlock()

	if err := b.api.SetDefaultAddress(ctx, id); err != nil {
		b.notify(ctx, notice.Error, "address_default_failed", "Failed to update")
		return fmt.Errorf("setting default address %d: %w", id, err)
	}
	b.notify(ctx, notice.Success, "address_default_updated", "Default address updated")
	if !b.refresh(ctx) {
		b.mu.Lock()
		b.addresses = projectDefault(b.addresses, id)
		b.mu.Unlock()
	}
	return nil
}

// refresh re-fetches the list and reports whether it succeeded.
func (b *AddressBook) refresh(ctx context.Context) bool {
	if err := b.Load(ctx); err != nil {
		b.logger.WarnContext(ctx, "address refresh failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

// projectDefault returns a copy of addrs with id as the only default.
func projectDefault(addrs []model.Address, id int) []model.Address {
	out := make([]model.Address, len(addrs))
	for i, a := range addrs {
		a.IsDefault = a.ID == id
		out[i] = a
	}
	return out
}

func validateAddress(in model.AddressInput) error {
	required := []struct{ field, value string }{
		{"full_name", in.FullName},
		{"phone", in.Phone},
		{"address_line1", in.AddressLine1},
		{"city", in.City},
		{"state", in.State},
		{"zip_code", in.ZipCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return model.NewValidationError(r.field, "is required")
		}
	}
	return nil
}
