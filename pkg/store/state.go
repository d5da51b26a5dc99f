// Package store holds the client's shared application state: the signed-in
// user, joined events, chats and notifications. State is an immutable value
// replaced by Reduce on every dispatched Action; reducers copy slices and
// maps instead of mutating them, so a State handed out is never changed.
package store

import (
	"github.com/huddle-sports/huddle-client/pkg/pagination"
	"github.com/huddle-sports/huddle-client/pkg/service"
)

// State is the whole application state.
type State struct {
	Auth          AuthState
	Events        EventsState
	Chats         ListState[service.Chat]
	Notifications NotificationsState
}

// AuthState is the signed-in user, if any.
type AuthState struct {
	LoggedIn bool
	User     service.User
}

// EventsState tracks events the user interacted with, keyed by ID.
type EventsState struct {
	ByID map[string]service.Event

	// Pending holds IDs with a join or leave in flight.
	Pending map[string]bool

	// Errors holds the last failure per event ID.
	Errors map[string]error
}

// ListState is one accumulated paginated list.
type ListState[T any] struct {
	Items      []T
	PageNumber int
	TotalPages int
	Loading    bool
	Err        error
}

// HasMore reports whether a further page exists.
func (l ListState[T]) HasMore() bool {
	return l.PageNumber+1 < l.TotalPages
}

// NotificationsState is the notification list plus the unread badge count.
type NotificationsState struct {
	ListState[service.Notification]
	Unread int
}

// apply merges a fetched page: page 0 replaces, later pages append.
func (l ListState[T]) apply(page pagination.Page[T]) ListState[T] {
	var items []T
	if page.PageNumber == 0 {
		items = append([]T(nil), page.Items...)
	} else {
		items = make([]T, 0, len(l.Items)+len(page.Items))
		items = append(items, l.Items...)
		items = append(items, page.Items...)
	}
	return ListState[T]{
		Items:      items,
		PageNumber: page.PageNumber,
		TotalPages: page.TotalPages,
	}
}
