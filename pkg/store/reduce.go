package store

import (
	"maps"
	"slices"

	"github.com/huddle-sports/huddle-client/pkg/service"
)

// Reduce returns the state that results from applying a to s. It does not
// modify s and has no side effects.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case LoggedIn:
		s.Auth = AuthState{LoggedIn: true, User: a.User}

	case LoggedOut:
		return State{}

	case NotificationsRequested:
		s.Notifications.Loading = true
		s.Notifications.Err = nil

	case NotificationsLoaded:
		s.Notifications = NotificationsState{
			ListState: s.Notifications.apply(a.Page),
			Unread:    a.Unread,
		}

	case NotificationsFailed:
		s.Notifications.Loading = false
		s.Notifications.Err = a.Err

	case NotificationRead:
		items := slices.Clone(s.Notifications.Items)
		for i := range items {
			if items[i].ID == a.ID && !items[i].Read {
				items[i].Read = true
				s.Notifications.Unread = max(0, s.Notifications.Unread-1)
			}
		}
		s.Notifications.Items = items

	case ChatsRequested:
		s.Chats.Loading = true
		s.Chats.Err = nil

	case ChatsLoaded:
		s.Chats = s.Chats.apply(a.Page)

	case ChatsFailed:
		s.Chats.Loading = false
		s.Chats.Err = a.Err

	case MembershipRequested:
		s.Events.Pending = with(s.Events.Pending, a.EventID, true)
		s.Events.Errors = without(s.Events.Errors, a.EventID)

	case MembershipChanged:
		s.Events.ByID = with(s.Events.ByID, a.Event.ID, a.Event)
		s.Events.Pending = without(s.Events.Pending, a.Event.ID)
		s.Events.Errors = without(s.Events.Errors, a.Event.ID)

	case MembershipFailed:
		s.Events.Pending = without(s.Events.Pending, a.EventID)
		s.Events.Errors = with(s.Events.Errors, a.EventID, a.Err)
	}
	return s
}

// Joined returns the events the user is a member of, in no particular order.
func (e EventsState) Joined() []service.Event {
	var out []service.Event
	for _, ev := range e.ByID {
		if ev.Joined {
			out = append(out, ev)
		}
	}
	return out
}

func with[V any](m map[string]V, key string, value V) map[string]V {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[string]V, 1)
	}
	out[key] = value
	return out
}

func without[V any](m map[string]V, key string) map[string]V {
	if _, ok := m[key]; !ok {
		return m
	}
	out := maps.Clone(m)
	delete(out, key)
	return out
}
