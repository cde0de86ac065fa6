package api

import (
	"context"
	"net/http"

	"storefront/internal/model"
)

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	var tokens model.TokenPair
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/auth/login",
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
	}, &tokens)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Register creates an account. The server does not log the user in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	body, err := c.doRaw(ctx, call{
		method: http.MethodPost,
		route:  "/auth/register",
		path:   "/auth/register",
		body:   map[string]string{"name": name, "email": email, "password": password},
	})
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := decodeField(body, "user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Profile returns the authenticated user.
func (c *Client) Profile(ctx context.Context) (*model.User, error) {
	body, err := c.doRaw(ctx, call{method: http.MethodGet, route: "/auth/profile", path: "/auth/profile"})
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := decodeField(body, "user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile saves name/phone and returns the updated user.
func (c *Client) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	body, err := c.doRaw(ctx, call{
		method: http.MethodPut,
		route:  "/auth/profile",
		path:   "/auth/profile",
		body:   update,
	})
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := decodeField(body, "user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
