package store

import (
	"context"

	"github.com/huddle-sports/huddle-client/pkg/service"
)

// Login signs in and records the user.
func Login(ctx context.Context, svc *service.Services, st *Store, email, password string) error {
	user, err := svc.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	st.Dispatch(LoggedIn{User: user})
	return nil
}

// Logout signs out and clears all state, even when the backend call failed.
func Logout(ctx context.Context, svc *service.Services, st *Store) error {
	err := svc.Auth.Logout(ctx)
	st.Dispatch(LoggedOut{})
	return err
}

// LoadNotifications fetches a notification page together with the unread count.
func LoadNotifications(ctx context.Context, svc *service.Services, st *Store, page, size int) error {
	st.Dispatch(NotificationsRequested{Page: page})

	list, err := svc.Notifications.List(ctx, page, size)
	if err != nil {
		st.Dispatch(NotificationsFailed{Err: err})
		return err
	}
	unread, err := svc.Notifications.UnreadCount(ctx)
	if err != nil {
		st.Dispatch(NotificationsFailed{Err: err})
		return err
	}

	st.Dispatch(NotificationsLoaded{Page: list, Unread: unread})
	return nil
}

// MarkNotificationRead marks a notification read on the backend, then locally.
func MarkNotificationRead(ctx context.Context, svc *service.Services, st *Store, id string) error {
	if err := svc.Notifications.MarkRead(ctx, id); err != nil {
		return err
	}
	st.Dispatch(NotificationRead{ID: id})
	return nil
}

// LoadChats fetches a chat page.
func LoadChats(ctx context.Context, svc *service.Services, st *Store, page, size int) error {
	st.Dispatch(ChatsRequested{Page: page})

	chats, err := svc.Chats.List(ctx, page, size)
	if err != nil {
		st.Dispatch(ChatsFailed{Err: err})
		return err
	}

	st.Dispatch(ChatsLoaded{Page: chats})
	return nil
}

// JoinEvent joins an event and stores the updated event.
func JoinEvent(ctx context.Context, svc *service.Services, st *Store, eventID string) error {
	return changeMembership(ctx, st, eventID, svc.Events.Join)
}

// LeaveEvent leaves an event and stores the updated event.
func LeaveEvent(ctx context.Context, svc *service.Services, st *Store, eventID string) error {
	return changeMembership(ctx, st, eventID, svc.Events.Leave)
}

func changeMembership(ctx context.Context, st *Store, eventID string, call func(context.Context, string) (service.Event, error)) error {
	st.Dispatch(MembershipRequested{EventID: eventID})

	event, err := call(ctx, eventID)
	if err != nil {
		st.Dispatch(MembershipFailed{EventID: eventID, Err: err})
		return err
	}

	st.Dispatch(MembershipChanged{Event: event})
	return nil
}
