package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/huddle-sports/huddle-client/pkg/pagination"
)

// Notifications wraps the /notifications endpoints.
type Notifications struct {
	api API
}

// List lists notifications, newest first.
func (n *Notifications) List(ctx context.Context, page, size int) (pagination.Page[Notification], error) {
	var out pagination.Page[Notification]
	if err := n.api.Get(ctx, "/notifications", pageQuery(page, size), &out); err != nil {
		return pagination.Page[Notification]{}, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkRead marks one notification as read.
func (n *Notifications) MarkRead(ctx context.Context, id string) error {
	if err := n.api.Post(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, nil); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

// UnreadCount returns the number of unread notifications.
func (n *Notifications) UnreadCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := n.api.Get(ctx, "/notifications/unread-count", nil, &out); err != nil {
		return 0, fmt.Errorf("unread notification count: %w", err)
	}
	return out.Count, nil
}
