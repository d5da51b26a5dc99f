package service

import (
	"time"

	"github.com/huddle-sports/huddle-client/pkg/sport"
)

// User is a Huddle member.
type User struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email,omitempty"`
	AvatarURL string        `json:"avatarUrl,omitempty"`
	Ranking   sport.Ranking `json:"ranking"`
}

// Location is where an event takes place.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Event is a sports event members can join.
type Event struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	Sport           sport.Sport   `json:"sport"`
	Ranking         sport.Ranking `json:"ranking"`
	StartsAt        time.Time     `json:"startsAt"`
	Location        Location      `json:"location"`
	MaxParticipants int           `json:"maxParticipants"`
	Participants    int           `json:"participants"`
	Organizer       User          `json:"organizer"`
	Joined          bool          `json:"joined"`
}

// Full reports whether no seats are left.
func (e Event) Full() bool {
	return e.MaxParticipants > 0 && e.Participants >= e.MaxParticipants
}

// Chat is a conversation, usually attached to an event.
type Chat struct {
	ID          string    `json:"id"`
	EventID     string    `json:"eventId,omitempty"`
	Title       string    `json:"title"`
	LastMessage *Message  `json:"lastMessage,omitempty"`
	UnreadCount int       `json:"unreadCount"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Message is a chat message.
type Message struct {
	ID     string    `json:"id"`
	ChatID string    `json:"chatId"`
	Sender User      `json:"sender"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

// Notification is an in-app notification.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	EventID   string    `json:"eventId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
