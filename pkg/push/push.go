// Package push registers this device for push notifications with Huddle.
package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/huddle-sports/huddle-client/pkg/client"
	"github.com/huddle-sports/huddle-client/pkg/logging"
	"github.com/huddle-sports/huddle-client/pkg/securestore"
	"github.com/rs/zerolog"
)

// DeviceToken identifies this installation to the push backend.
type DeviceToken string

// Registrar registers the device for push delivery.
type Registrar interface {
	Register(ctx context.Context) (DeviceToken, error)
}

// API is the subset of *client.Client the registrar needs.
type API interface {
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// DefaultPlatform is reported when none is configured.
const DefaultPlatform = "cli"

// DeviceRegistrar keeps one token per installation in the secure store.
type DeviceRegistrar struct {
	api      API
	secrets  securestore.Store
	platform string
	logger   zerolog.Logger
}

// NewDeviceRegistrar creates a registrar. An empty platform uses DefaultPlatform.
func NewDeviceRegistrar(api API, secrets securestore.Store, platform string) *DeviceRegistrar {
	if platform == "" {
		platform = DefaultPlatform
	}
	return &DeviceRegistrar{
		api:      api,
		secrets:  secrets,
		platform: platform,
		logger:   logging.NewLogger("push"),
	}
}

// Register reuses the stored token, or creates and stores a new one, then
// announces it to the backend. Registering twice is harmless.
func (r *DeviceRegistrar) Register(ctx context.Context) (DeviceToken, error) {
	token, ok, err := r.secrets.Get(securestore.KeyDeviceToken)
	if err != nil {
		return "", fmt.Errorf("read device token: %w", err)
	}
	if !ok || token == "" {
		token = uuid.NewString()
		if err := r.secrets.Set(securestore.KeyDeviceToken, token); err != nil {
			return "", fmt.Errorf("store device token: %w", err)
		}
		r.logger.Debug().Msg("Generated new device token")
	}

	body := map[string]string{"token": token, "platform": r.platform}
	if err := r.api.Post(ctx, "/notifications/devices", body, nil); err != nil {
		return "", fmt.Errorf("register device: %w", err)
	}

	r.logger.Info().Str("platform", r.platform).Msg("Device registered for push notifications")
	return DeviceToken(token), nil
}

// Unregister removes the device from the backend and forgets the token.
// A token the backend no longer knows is still forgotten locally.
func (r *DeviceRegistrar) Unregister(ctx context.Context) error {
	token, ok, err := r.secrets.Get(securestore.KeyDeviceToken)
	if err != nil {
		return fmt.Errorf("read device token: %w", err)
	}
	if !ok || token == "" {
		return nil
	}

	err = r.api.Delete(ctx, "/notifications/devices/"+url.PathEscape(token), nil)
	var apiErr *client.APIError
	if err != nil && !(errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound) {
		return fmt.Errorf("unregister device: %w", err)
	}

	if err := r.secrets.Delete(securestore.KeyDeviceToken); err != nil {
		return fmt.Errorf("clear device token: %w", err)
	}
	r.logger.Info().Msg("Device unregistered")
	return nil
}

var _ Registrar = (*DeviceRegistrar)(nil)
