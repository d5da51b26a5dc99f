package testutil

import (
	"fmt"
	"time"
)

// Fixture types mirror the backend's JSON.
type (
	UserFixture struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email,omitempty"`
		Ranking string `json:"ranking"`
	}

	LocationFixture struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}

	EventFixture struct {
		ID              string          `json:"id"`
		Title           string          `json:"title"`
		Description     string          `json:"description,omitempty"`
		Sport           string          `json:"sport"`
		Ranking         string          `json:"ranking"`
		StartsAt        time.Time       `json:"startsAt"`
		Location        LocationFixture `json:"location"`
		MaxParticipants int             `json:"maxParticipants"`
		Participants    int             `json:"participants"`
		Organizer       UserFixture     `json:"organizer"`
		Joined          bool            `json:"joined"`
	}

	MessageFixture struct {
		ID     string      `json:"id"`
		ChatID string      `json:"chatId"`
		Sender UserFixture `json:"sender"`
		Text   string      `json:"text"`
		SentAt time.Time   `json:"sentAt"`
	}

	ChatFixture struct {
		ID          string          `json:"id"`
		EventID     string          `json:"eventId,omitempty"`
		Title       string          `json:"title"`
		LastMessage *MessageFixture `json:"lastMessage,omitempty"`
		UnreadCount int             `json:"unreadCount"`
		UpdatedAt   time.Time       `json:"updatedAt"`
	}

	NotificationFixture struct {
		ID        string    `json:"id"`
		Type      string    `json:"type"`
		Title     string    `json:"title"`
		Body      string    `json:"body"`
		EventID   string    `json:"eventId,omitempty"`
		Read      bool      `json:"read"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

// TestUser is the user behind TestToken.
var TestUser = UserFixture{ID: "u-ana", Name: "Ana", Email: TestEmail, Ranking: "intermediate"}

var otherUser = UserFixture{ID: "u-ben", Name: "Ben", Ranking: "advanced"}

// SeedTime is the start time of the first seeded event.
var SeedTime = time.Date(2030, time.June, 1, 18, 0, 0, 0, time.UTC)

var (
	seedSports   = []string{"football", "basketball", "tennis", "padel", "running"}
	seedRankings = []string{"beginner", "intermediate", "advanced", "pro"}
)

func (m *MockHuddle) seed(events int) {
	for i := 0; i < events; i++ {
		organizer := otherUser
		if i%5 == 0 {
			organizer = TestUser
		}
		m.events = append(m.events, EventFixture{
			ID:              fmt.Sprintf("evt-%03d", i),
			Title:           fmt.Sprintf("Game %d", i),
			Sport:           seedSports[i%len(seedSports)],
			Ranking:         seedRankings[i%len(seedRankings)],
			StartsAt:        SeedTime.Add(time.Duration(i) * time.Hour),
			Location:        LocationFixture{Name: "Central Park", Latitude: 40.785, Longitude: -73.968},
			MaxParticipants: 10,
			Participants:    i % 10,
			Organizer:       organizer,
			Joined:          i%3 == 0,
		})
	}

	for i, title := range []string{"Sunday football", "Padel doubles"} {
		chatID := fmt.Sprintf("chat-%d", i)
		msgs := []MessageFixture{
			{ID: chatID + "-m0", ChatID: chatID, Sender: otherUser, Text: "Who's in?", SentAt: SeedTime.Add(-2 * time.Hour)},
			{ID: chatID + "-m1", ChatID: chatID, Sender: TestUser, Text: "Me!", SentAt: SeedTime.Add(-time.Hour)},
		}
		m.messages[chatID] = msgs
		last := msgs[len(msgs)-1]
		m.chats = append(m.chats, ChatFixture{
			ID:          chatID,
			EventID:     fmt.Sprintf("evt-%03d", i),
			Title:       title,
			LastMessage: &last,
			UnreadCount: i,
			UpdatedAt:   last.SentAt,
		})
	}

	for i := 0; i < 3; i++ {
		m.notifications = append(m.notifications, NotificationFixture{
			ID:        fmt.Sprintf("ntf-%d", i),
			Type:      "event_reminder",
			Title:     "Game starts soon",
			Body:      fmt.Sprintf("Game %d starts in one hour", i),
			EventID:   fmt.Sprintf("evt-%03d", i),
			Read:      i == 2,
			CreatedAt: SeedTime.Add(-time.Duration(i) * time.Minute),
		})
	}
}
