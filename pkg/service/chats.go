package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/huddle-sports/huddle-client/pkg/pagination"
)

// MaxMessageLength is the longest accepted chat message, in bytes.
const MaxMessageLength = 2000

// Chats wraps the /chats endpoints.
type Chats struct {
	api API
}

// List lists the current user's chats, most recently updated first.
func (c *Chats) List(ctx context.Context, page, size int) (pagination.Page[Chat], error) {
	var out pagination.Page[Chat]
	if err := c.api.Get(ctx, "/chats", pageQuery(page, size), &out); err != nil {
		return pagination.Page[Chat]{}, fmt.Errorf("list chats: %w", err)
	}
	return out, nil
}

// Messages lists a chat's messages, newest first.
func (c *Chats) Messages(ctx context.Context, chatID string, page, size int) (pagination.Page[Message], error) {
	var out pagination.Page[Message]
	path := "/chats/" + url.PathEscape(chatID) + "/messages"
	if err := c.api.Get(ctx, path, pageQuery(page, size), &out); err != nil {
		return pagination.Page[Message]{}, fmt.Errorf("list messages of %s: %w", chatID, err)
	}
	return out, nil
}

// MessagesFeed adapts Messages to a feed source for one chat.
func (c *Chats) MessagesFeed(chatID string) pagination.FetchFunc[Message] {
	return func(ctx context.Context, page, size int) (pagination.Page[Message], error) {
		return c.Messages(ctx, chatID, page, size)
	}
}

// Send posts a message to a chat.
func (c *Chats) Send(ctx context.Context, chatID, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, fmt.Errorf("%w: message is empty", ErrInvalidInput)
	}
	if len(text) > MaxMessageLength {
		return Message{}, fmt.Errorf("%w: message longer than %d bytes", ErrInvalidInput, MaxMessageLength)
	}

	var msg Message
	path := "/chats/" + url.PathEscape(chatID) + "/messages"
	if err := c.api.Post(ctx, path, map[string]string{"text": text}, &msg); err != nil {
		return Message{}, fmt.Errorf("send message to %s: %w", chatID, err)
	}
	return msg, nil
}
