package api

import (
	"context"
	"errors"
	"strings"

	"github.com/sigmatax/console/internal/util"
)

// Credentials are the login form values.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Profile is the extended user info returned by auth/session.
type Profile struct {
	Name    string  `json:"nama"`
	Role    string  `json:"role"`
	StaffID util.ID `json:"staff_id"`
}

// Login exchanges credentials for a signed token.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.Post(ctx, "auth/login", creds, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", errors.New("api: login response without token")
	}
	return resp.Token, nil
}

// Profile fetches the current user's extended profile.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var resp struct {
		UserInfo *Profile `json:"user_info"`
	}
	if err := c.Get(ctx, "auth/session", nil, &resp); err != nil {
		return Profile{}, err
	}
	if resp.UserInfo == nil {
		return Profile{}, errors.New("api: session response without user_info")
	}
	return *resp.UserInfo, nil
}

// Logout invalidates the token on the API side.
func (c *Client) Logout(ctx context.Context) error {
	return c.Post(ctx, "auth/logout", nil, nil)
}
