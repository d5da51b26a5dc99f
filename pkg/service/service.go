// Package service wraps the Huddle REST endpoints in typed calls. List
// endpoints return pagination.Page values and expose FetchFunc adapters so
// they can drive a pagination.Feed directly.
package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/huddle-sports/huddle-client/pkg/securestore"
)

// ErrInvalidInput is wrapped by validation errors.
var ErrInvalidInput = errors.New("invalid input")

// API is the HTTP capability the services are built on. *client.Client implements it.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Services groups every service over one API.
type Services struct {
	Events        *Events
	Chats         *Chats
	Notifications *Notifications
	Auth          *Auth
}

// New creates all services. secrets receives the tokens issued at login.
func New(api API, secrets securestore.Store) *Services {
	return &Services{
		Events:        &Events{api: api},
		Chats:         &Chats{api: api},
		Notifications: &Notifications{api: api},
		Auth:          &Auth{api: api, secrets: secrets},
	}
}

func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}
