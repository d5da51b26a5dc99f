package service_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/huddle-sports/huddle-client/internal/testutil"
	"github.com/huddle-sports/huddle-client/pkg/client"
	"github.com/huddle-sports/huddle-client/pkg/pagination"
	"github.com/huddle-sports/huddle-client/pkg/securestore"
	"github.com/huddle-sports/huddle-client/pkg/service"
	"github.com/huddle-sports/huddle-client/pkg/sport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	mock    *testutil.MockHuddle
	secrets *securestore.MemoryStore
	svc     *service.Services
}

func newFixture(t *testing.T, events int, loggedIn bool) *fixture {
	t.Helper()

	mock := testutil.NewMockHuddle(events)
	t.Cleanup(mock.Close)

	secrets := securestore.NewMemoryStore()
	if loggedIn {
		require.NoError(t, secrets.Set(securestore.KeyAccessToken, testutil.TestToken))
	}

	cfg := client.DefaultConfig(mock.URL(), "huddle-test/1.0")
	cfg.RequestsPerSecond = 0
	cfg.InitialBackoff = 5 * time.Millisecond
	cfg.Tokens = securestore.TokenSource(secrets)
	c, err := client.New(cfg)
	require.NoError(t, err)

	return &fixture{mock: mock, secrets: secrets, svc: service.New(c, secrets)}
}

func TestEvents_AllPages(t *testing.T) {
	f := newFixture(t, 25, false)
	ctx := context.Background()

	page, err := f.svc.Events.All(ctx, service.Filter{}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 25, page.TotalElements)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, "evt-000", page.Items[0].ID)
	assert.Equal(t, sport.Football, page.Items[0].Sport)

	last, err := f.svc.Events.All(ctx, service.Filter{}, 2, 10)
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
	assert.True(t, last.IsLast())
}

func TestEvents_FilterBySport(t *testing.T) {
	f := newFixture(t, 25, false)

	page, err := f.svc.Events.All(context.Background(), service.Filter{Sport: sport.Tennis}, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalElements)
	for _, e := range page.Items {
		assert.Equal(t, sport.Tennis, e.Sport)
	}
}

func TestFilter_QueryAndKey(t *testing.T) {
	assert.Empty(t, service.Filter{}.Key())

	f := service.Filter{Sport: sport.Padel, Latitude: 41.38879, Longitude: 2.15899, RadiusKm: 5}
	q := f.Query()
	assert.Equal(t, "padel", q.Get("sport"))
	assert.Equal(t, "41.38879", q.Get("lat"))
	assert.Equal(t, "5", q.Get("radiusKm"))
	assert.Equal(t, f.Key(), f.Key())
	assert.NotEqual(t, f.Key(), service.Filter{Sport: sport.Padel}.Key())
}

func TestEvents_JoinedAndCreatedRequireLogin(t *testing.T) {
	f := newFixture(t, 10, false)

	_, err := f.svc.Events.Joined(context.Background(), 0, 10)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestEvents_JoinedAndCreated(t *testing.T) {
	f := newFixture(t, 10, true)
	ctx := context.Background()

	joined, err := f.svc.Events.Joined(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, joined.TotalElements) // 0, 3, 6, 9
	for _, e := range joined.Items {
		assert.True(t, e.Joined)
	}

	created, err := f.svc.Events.Created(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, created.TotalElements) // 0, 5
}

func TestEvents_JoinLeave(t *testing.T) {
	f := newFixture(t, 10, true)
	ctx := context.Background()

	event, err := f.svc.Events.Join(ctx, "evt-001")
	require.NoError(t, err)
	assert.True(t, event.Joined)
	assert.Equal(t, 2, event.Participants)

	event, err = f.svc.Events.Leave(ctx, "evt-001")
	require.NoError(t, err)
	assert.False(t, event.Joined)
	assert.Equal(t, 1, event.Participants)
}

func TestEvents_JoinFullEvent(t *testing.T) {
	f := newFixture(t, 10, true)

	// no seeded event is full
	f.mock.SetResponse("/events/evt-002/join", testutil.MockResponse{
		StatusCode: http.StatusConflict,
		Body:       `{"message":"event is full"}`,
	})

	_, err := f.svc.Events.Join(context.Background(), "evt-002")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "event is full", apiErr.Message)
}

func TestEvents_GetAndNotFound(t *testing.T) {
	f := newFixture(t, 3, false)
	ctx := context.Background()

	event, err := f.svc.Events.Get(ctx, "evt-002")
	require.NoError(t, err)
	assert.Equal(t, "Game 2", event.Title)
	assert.True(t, testutil.SeedTime.Add(2*time.Hour).Equal(event.StartsAt), "starts at %s", event.StartsAt)

	_, err = f.svc.Events.Get(ctx, "evt-404")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestEvents_CreateAndDelete(t *testing.T) {
	f := newFixture(t, 2, true)
	ctx := context.Background()

	created, err := f.svc.Events.Create(ctx, service.EventInput{
		Title:           "  Evening run  ",
		Sport:           sport.Running,
		Ranking:         sport.Beginner,
		StartsAt:        time.Now().Add(48 * time.Hour),
		MaxParticipants: 8,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Evening run", created.Title)
	assert.Equal(t, sport.Running, created.Sport)
	assert.Equal(t, 3, f.mock.EventCount())

	require.NoError(t, f.svc.Events.Delete(ctx, created.ID))
	assert.Equal(t, 2, f.mock.EventCount())

	// evt-001 is organised by someone else
	err = f.svc.Events.Delete(ctx, "evt-001")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestEventInput_Validate(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	valid := service.EventInput{
		Title:           "Padel",
		StartsAt:        now.Add(time.Hour),
		MaxParticipants: 4,
	}
	require.NoError(t, valid.Validate(now))

	tests := map[string]func(*service.EventInput){
		"empty title":        func(in *service.EventInput) { in.Title = "   " },
		"long title":         func(in *service.EventInput) { in.Title = strings.Repeat("é", service.MaxTitleLength+1) },
		"start in the past":  func(in *service.EventInput) { in.StartsAt = now.Add(-time.Minute) },
		"start now":          func(in *service.EventInput) { in.StartsAt = now },
		"single participant": func(in *service.EventInput) { in.MaxParticipants = 1 },
		"latitude":           func(in *service.EventInput) { in.Location.Latitude = 91 },
		"longitude":          func(in *service.EventInput) { in.Location.Longitude = -181 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			in := valid
			mutate(&in)
			assert.ErrorIs(t, in.Validate(now), service.ErrInvalidInput)
		})
	}
}

func TestEvents_CreateInvalidDoesNotCallAPI(t *testing.T) {
	f := newFixture(t, 0, true)

	_, err := f.svc.Events.Create(context.Background(), service.EventInput{Title: ""})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, 0, f.mock.GetRequestCount())
}

func TestEvents_FeedsDriveFeed(t *testing.T) {
	f := newFixture(t, 25, false)
	ctx := context.Background()

	cfg := pagination.DefaultConfig()
	cfg.RefreshDelay, cfg.LoadMoreDelay = 0, 0
	feed := pagination.NewFeed("events", f.svc.Events.AllFeed(service.Filter{}), cfg)
	defer feed.Close()

	require.NoError(t, feed.Start(ctx, service.Filter{}.Key()))
	for {
		more, err := feed.LoadMore(ctx)
		require.NoError(t, err)
		if !more {
			break
		}
	}
	assert.Len(t, feed.Items(), 25)
}

func TestChats(t *testing.T) {
	f := newFixture(t, 2, true)
	ctx := context.Background()

	chats, err := f.svc.Chats.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, chats.Items, 2)
	require.NotNil(t, chats.Items[0].LastMessage)
	assert.Equal(t, "Me!", chats.Items[0].LastMessage.Text)

	msgs, err := f.svc.Chats.Messages(ctx, "chat-0", 0, 10)
	require.NoError(t, err)
	require.Len(t, msgs.Items, 2)
	assert.Equal(t, "Me!", msgs.Items[0].Text, "newest first")

	sent, err := f.svc.Chats.Send(ctx, "chat-0", "  On my way  ")
	require.NoError(t, err)
	assert.Equal(t, "On my way", sent.Text)
	assert.Equal(t, testutil.TestUser.ID, sent.Sender.ID)

	feed := pagination.NewFeed("messages", f.svc.Chats.MessagesFeed("chat-0"), pagination.Config{PageSize: 10})
	defer feed.Close()
	require.NoError(t, feed.Start(ctx, "chat-0"))
	assert.Len(t, feed.Items(), 3)
}

func TestChats_SendValidation(t *testing.T) {
	f := newFixture(t, 0, true)
	ctx := context.Background()

	_, err := f.svc.Chats.Send(ctx, "chat-0", "   ")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.svc.Chats.Send(ctx, "chat-0", strings.Repeat("a", service.MaxMessageLength+1))
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	assert.Equal(t, 0, f.mock.GetRequestCount())
}

func TestNotifications(t *testing.T) {
	f := newFixture(t, 0, true)
	ctx := context.Background()

	list, err := f.svc.Notifications.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, list.Items, 3)
	assert.Equal(t, 0, list.PageNumber)
	assert.Equal(t, 1, list.TotalPages)

	count, err := f.svc.Notifications.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, f.svc.Notifications.MarkRead(ctx, "ntf-0"))
	count, err = f.svc.Notifications.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = f.svc.Notifications.MarkRead(ctx, "ntf-missing")
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestAuth_LoginMeLogout(t *testing.T) {
	f := newFixture(t, 0, false)
	ctx := context.Background()

	loggedIn, err := f.svc.Auth.LoggedIn()
	require.NoError(t, err)
	assert.False(t, loggedIn)

	user, err := f.svc.Auth.Login(ctx, testutil.TestEmail, testutil.TestPassword)
	require.NoError(t, err)
	assert.Equal(t, testutil.TestUser.ID, user.ID)
	assert.Equal(t, sport.Intermediate, user.Ranking)

	token, ok, _ := f.secrets.Get(securestore.KeyAccessToken)
	assert.True(t, ok)
	assert.Equal(t, testutil.TestToken, token)
	_, ok, _ = f.secrets.Get(securestore.KeyRefreshToken)
	assert.True(t, ok)

	me, err := f.svc.Auth.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.Name)

	require.NoError(t, f.svc.Auth.Logout(ctx))
	_, ok, _ = f.secrets.Get(securestore.KeyAccessToken)
	assert.False(t, ok)

	_, err = f.svc.Auth.Me(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestAuth_LoginFailures(t *testing.T) {
	f := newFixture(t, 0, false)
	ctx := context.Background()

	_, err := f.svc.Auth.Login(ctx, "", "x")
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.svc.Auth.Login(ctx, testutil.TestEmail, "wrong")
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	_, ok, _ := f.secrets.Get(securestore.KeyAccessToken)
	assert.False(t, ok)
}

func TestAuth_LogoutWithExpiredSession(t *testing.T) {
	f := newFixture(t, 0, false)
	require.NoError(t, f.secrets.Set(securestore.KeyAccessToken, "expired"))

	require.NoError(t, f.svc.Auth.Logout(context.Background()))
	_, ok, _ := f.secrets.Get(securestore.KeyAccessToken)
	assert.False(t, ok)
}
