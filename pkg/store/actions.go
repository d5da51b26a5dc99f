package store

import (
	"github.com/huddle-sports/huddle-client/pkg/pagination"
	"github.com/huddle-sports/huddle-client/pkg/service"
)

// Action describes a state transition. The set is closed to this package.
type Action interface {
	action()
}

type (
	// LoggedIn records a successful login.
	LoggedIn struct{ User service.User }

	// LoggedOut clears all state.
	LoggedOut struct{}

	// NotificationsRequested marks the notification list as loading.
	NotificationsRequested struct{ Page int }

	// NotificationsLoaded merges a fetched notification page.
	NotificationsLoaded struct {
		Page   pagination.Page[service.Notification]
		Unread int
	}

	// NotificationsFailed records a failed notification fetch.
	NotificationsFailed struct{ Err error }

	// NotificationRead marks one notification as read.
	NotificationRead struct{ ID string }

	// ChatsRequested marks the chat list as loading.
	ChatsRequested struct{ Page int }

	// ChatsLoaded merges a fetched chat page.
	ChatsLoaded struct{ Page pagination.Page[service.Chat] }

	// ChatsFailed records a failed chat fetch.
	ChatsFailed struct{ Err error }

	// MembershipRequested marks a join or leave as in flight.
	MembershipRequested struct{ EventID string }

	// MembershipChanged stores the event returned by a join or leave.
	MembershipChanged struct{ Event service.Event }

	// MembershipFailed records a failed join or leave.
	MembershipFailed struct {
		EventID string
		Err     error
	}
)

func (LoggedIn) action()               {}
func (LoggedOut) action()              {}
func (NotificationsRequested) action() {}
func (NotificationsLoaded) action()    {}
func (NotificationsFailed) action()    {}
func (NotificationRead) action()       {}
func (ChatsRequested) action()         {}
func (ChatsLoaded) action()            {}
func (ChatsFailed) action()            {}
func (MembershipRequested) action()    {}
func (MembershipChanged) action()      {}
func (MembershipFailed) action()       {}
