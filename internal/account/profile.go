package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/notice"
)

// ErrInvalidRating is returned for ratings outside 1..5.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ProfileUpdater saves profile fields and refreshes the session user.
// *session.Session implements it.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error)
}

// Profile edits the signed-in user's name and phone.
type Profile struct {
	base
	session ProfileUpdater
}

// NewProfile creates a Profile bound to the session.
func NewProfile(session ProfileUpdater, opts Options) *Profile {
	return &Profile{base: newBase(opts), session: session}
}

// Save updates name and phone; the session then re-fetches the user.
func (p *Profile) Save(ctx context.Context, name, phone string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("name", "is required")
	}
	user, err := p.session.UpdateProfile(ctx, model.ProfileUpdate{Name: name, Phone: strings.TrimSpace(phone)})
	if err != nil {
		p.notify(ctx, notice.Error, "profile_update_failed", model.UserMessage(err, "Update failed"))
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	p.notify(ctx, notice.Success, "profile_updated", "Profile updated")
	return user, nil
}

// Reviews submits, edits and deletes the customer's product reviews.
type Reviews struct {
	base
	api backend.Catalog
}

// NewReviews creates a Reviews view.
func NewReviews(api backend.Catalog, opts Options) *Reviews {
	return &Reviews{base: newBase(opts), api: api}
}

// Submit posts a review and returns the product's refreshed review page.
// The server only accepts reviews of purchased products.
func (r *Reviews) Submit(ctx context.Context, in model.ReviewInput) (*model.ReviewPage, error) {
	if err := checkRating(in.Rating); err != nil {
		return nil, err
	}
	if in.ProductID <= 0 {
		return nil, model.NewValidationError("product_id", "is required")
	}
	if _, err := r.api.CreateReview(ctx, in); err != nil {
		r.notify(ctx, notice.Error, "review_failed", model.UserMessage(err, "Failed to submit review"))
		return nil, fmt.Errorf("submitting review: %w", err)
	}
	r.notify(ctx, notice.Success, "review_submitted", "Review submitted!")
	return r.api.ProductReviews(ctx, in.ProductID, 1)
}

// Update edits one of the customer's reviews.
func (r *Reviews) Update(ctx context.Context, id int, in model.ReviewInput) (*model.Review, error) {
	if err := checkRating(in.Rating); err != nil {
		return nil, err
	}
	review, err := r.api.UpdateReview(ctx, id, in)
	if err != nil {
		r.notify(ctx, notice.Error, "review_failed", model.UserMessage(err, "Failed to update review"))
		return nil, fmt.Errorf("updating review %d: %w", id, err)
	}
	r.notify(ctx, notice.Success, "review_updated", "Review updated")
	return review, nil
}

// Delete removes one of the customer's reviews.
func (r *Reviews) Delete(ctx context.Context, id int) error {
	if err := r.api.DeleteReview(ctx, id); err != nil {
		r.notify(ctx, notice.Error, "review_failed", model.UserMessage(err, "Failed to delete review"))
		return fmt.Errorf("deleting review %d: %w", id, err)
	}
	r.notify(ctx, notice.Info, "review_deleted", "Review deleted")
	return nil
}

func checkRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}
