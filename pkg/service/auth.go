package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huddle-sports/huddle-client/pkg/client"
	"github.com/huddle-sports/huddle-client/pkg/securestore"
	"github.com/rs/zerolog/log"
)

// Session is the result of a successful login.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
}

// Auth wraps the /auth endpoints and keeps the issued tokens in the secure store.
type Auth struct {
	api     API
	secrets securestore.Store
}

// Login authenticates and stores the issued tokens.
func (a *Auth) Login(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	var session Session
	body := map[string]string{"email": email, "password": password}
	if err := a.api.Post(ctx, "/auth/login", body, &session); err != nil {
		return User{}, fmt.Errorf("login: %w", err)
	}
	if session.AccessToken == "" {
		return User{}, fmt.Errorf("login: no access token issued")
	}

	if err := a.secrets.Set(securestore.KeyAccessToken, session.AccessToken); err != nil {
		return User{}, fmt.Errorf("store access token: %w", err)
	}
	if session.RefreshToken != "" {
		if err := a.secrets.Set(securestore.KeyRefreshToken, session.RefreshToken); err != nil {
			return User{}, fmt.Errorf("store refresh token: %w", err)
		}
	}
	return session.User, nil
}

// Logout revokes the session server-side and forgets the stored tokens.
// An already expired session is not an error.
func (a *Auth) Logout(ctx context.Context) error {
	if err := a.api.Post(ctx, "/auth/logout", nil, nil); err != nil && !errors.Is(err, client.ErrUnauthorized) {
		log.Warn().Err(err).Msg("Server-side logout failed, clearing local tokens anyway")
	}

	for _, key := range []string{securestore.KeyAccessToken, securestore.KeyRefreshToken} {
		if err := a.secrets.Delete(key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	return nil
}

// LoggedIn reports whether an access token is stored.
func (a *Auth) LoggedIn() (bool, error) {
	token, ok, err := a.secrets.Get(securestore.KeyAccessToken)
	if err != nil {
		return false, err
	}
	return ok && token != "", nil
}

// Me returns the current user.
func (a *Auth) Me(ctx context.Context) (User, error) {
	var user User
	if err := a.api.Get(ctx, "/auth/me", nil, &user); err != nil {
		return User{}, fmt.Errorf("get current user: %w", err)
	}
	return user, nil
}
