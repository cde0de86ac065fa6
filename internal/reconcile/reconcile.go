// Package reconcile computes the mutations that bring the server cart to a
// desired set of lines. The checkout orchestrator fetches the current cart,
// diffs, and sends only the necessary requests.
package reconcile

import (
	"sort"
	"strings"

	"storefront/internal/model"
)

// LineDiff describes the mutations needed to reconcile cart lines.
// Apply in order: Remove, Update, Add.
type LineDiff struct {
	ToRemove []LineToRemove // In the cart but not desired
	ToUpdate []LineToUpdate // In both with different quantities
	ToAdd    []LineToAdd    // Desired but not in the cart
}

// LineToAdd is a product to add to the cart.
type LineToAdd struct {
	ProductID int
	Quantity  int
}

// LineToRemove is a cart line to delete. The API removes by product ID.
type LineToRemove struct {
	ProductID int
	LineID    int // Server cart line ID (informational)
}

// LineToUpdate is a quantity change for an existing line.
type LineToUpdate struct {
	ProductID   int
	OldQuantity int
	NewQuantity int
}

// DesiredLine is one line of the target cart.
type DesiredLine struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// IsEmpty reports whether no line changes are needed.
func (d *LineDiff) IsEmpty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0 && len(d.ToUpdate) == 0
}

// Count returns the number of requests the diff will issue.
func (d *LineDiff) Count() int {
	return len(d.ToAdd) + len(d.ToRemove) + len(d.ToUpdate)
}

// DiffLines computes the delta between the current cart lines and the
// desired ones. Matching is by product ID. A desired quantity below 1
// means the product should not be in the cart; duplicate desired entries
// for a product are summed. Results are ordered by product ID.
func DiffLines(current []model.CartLine, desired []DesiredLine) *LineDiff {
	diff := &LineDiff{}

	currentByID := make(map[int]model.CartLine, len(current))
	for _, line := range current {
		currentByID[line.ProductID] = line
	}

	desiredByID := make(map[int]int, len(desired))
	for _, line := range desired {
		desiredByID[line.ProductID] += line.Quantity
	}
	for id, qty := range desiredByID {
		if qty < 1 {
			delete(desiredByID, id)
		}
	}

	for id, qty := range desiredByID {
		cur, exists := currentByID[id]
		switch {
		case !exists:
			diff.ToAdd = append(diff.ToAdd, LineToAdd{ProductID: id, Quantity: qty})
		case cur.Quantity != qty:
			diff.ToUpdate = append(diff.ToUpdate, LineToUpdate{
				ProductID:   id,
				OldQuantity: cur.Quantity,
				NewQuantity: qty,
			})
		}
	}

	for id, cur := range currentByID {
		if _, exists := desiredByID[id]; !exists {
			diff.ToRemove = append(diff.ToRemove, LineToRemove{ProductID: id, LineID: cur.ID})
		}
	}

	sort.Slice(diff.ToAdd, func(i, j int) bool { return diff.ToAdd[i].ProductID < diff.ToAdd[j].ProductID })
	sort.Slice(diff.ToUpdate, func(i, j int) bool { return diff.ToUpdate[i].ProductID < diff.ToUpdate[j].ProductID })
	sort.Slice(diff.ToRemove, func(i, j int) bool { return diff.ToRemove[i].ProductID < diff.ToRemove[j].ProductID })
	return diff
}

// CouponChanged reports whether the desired coupon code differs from the
// applied one. An empty desired code requests no change; codes compare
// case-insensitively.
func CouponChanged(current, desired string) bool {
	desired = strings.TrimSpace(desired)
	return desired != "" && !strings.EqualFold(strings.TrimSpace(current), desired)
}
