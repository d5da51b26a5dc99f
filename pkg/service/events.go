package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/huddle-sports/huddle-client/pkg/pagination"
	"github.com/huddle-sports/huddle-client/pkg/sport"
)

// Filter narrows the public event listing. Zero values are not sent.
type Filter struct {
	Sport     sport.Sport
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// Query encodes the filter as query parameters.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Sport != sport.Other {
		q.Set("sport", f.Sport.String())
	}
	if f.RadiusKm > 0 {
		q.Set("lat", strconv.FormatFloat(f.Latitude, 'f', 5, 64))
		q.Set("lng", strconv.FormatFloat(f.Longitude, 'f', 5, 64))
		q.Set("radiusKm", strconv.FormatFloat(f.RadiusKm, 'f', -1, 64))
	}
	return q
}

// Key identifies the filter. Feeds reset when it changes.
func (f Filter) Key() string {
	return f.Query().Encode()
}

// EventInput is the payload for creating an event.
type EventInput struct {
	Title           string        `json:"title"`
	Description     string        `json:"description,omitempty"`
	Sport           sport.Sport   `json:"sport"`
	Ranking         sport.Ranking `json:"ranking"`
	StartsAt        time.Time     `json:"startsAt"`
	Location        Location      `json:"location"`
	MaxParticipants int           `json:"maxParticipants"`
}

// MaxTitleLength is the longest accepted event title, in characters.
const MaxTitleLength = 100

// Validate checks the input against now.
func (in EventInput) Validate(now time.Time) error {
	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return fmt.Errorf("%w: title longer than %d characters", ErrInvalidInput, MaxTitleLength)
	case !in.StartsAt.After(now):
		return fmt.Errorf("%w: start time must be in the future", ErrInvalidInput)
	case in.MaxParticipants < 2:
		return fmt.Errorf("%w: at least 2 participants required", ErrInvalidInput)
	case in.Location.Latitude < -90 || in.Location.Latitude > 90:
		return fmt.Errorf("%w: latitude out of range", ErrInvalidInput)
	case in.Location.Longitude < -180 || in.Location.Longitude > 180:
		return fmt.Errorf("%w: longitude out of range", ErrInvalidInput)
	}
	return nil
}

// Events wraps the /events endpoints.
type Events struct {
	api API
}

// All lists public events matching filter.
func (e *Events) All(ctx context.Context, filter Filter, page, size int) (pagination.Page[Event], error) {
	q := pageQuery(page, size)
	for k, v := range filter.Query() {
		q[k] = v
	}
	return e.list(ctx, "/events", q)
}

// Joined lists events the current user joined.
func (e *Events) Joined(ctx context.Context, page, size int) (pagination.Page[Event], error) {
	return e.list(ctx, "/events/joined", pageQuery(page, size))
}

// Created lists events the current user organises.
func (e *Events) Created(ctx context.Context, page, size int) (pagination.Page[Event], error) {
	return e.list(ctx, "/events/created", pageQuery(page, size))
}

func (e *Events) list(ctx context.Context, path string, q url.Values) (pagination.Page[Event], error) {
	var page pagination.Page[Event]
	if err := e.api.Get(ctx, path, q, &page); err != nil {
		return pagination.Page[Event]{}, fmt.Errorf("list %s: %w", path, err)
	}
	return page, nil
}

// AllFeed adapts All to a feed source for a fixed filter.
func (e *Events) AllFeed(filter Filter) pagination.FetchFunc[Event] {
	return func(ctx context.Context, page, size int) (pagination.Page[Event], error) {
		return e.All(ctx, filter, page, size)
	}
}

// JoinedFeed adapts Joined to a feed source.
func (e *Events) JoinedFeed() pagination.FetchFunc[Event] {
	return e.Joined
}

// CreatedFeed adapts Created to a feed source.
func (e *Events) CreatedFeed() pagination.FetchFunc[Event] {
	return e.Created
}

// Get fetches one event.
func (e *Events) Get(ctx context.Context, id string) (Event, error) {
	var event Event
	if err := e.api.Get(ctx, "/events/"+url.PathEscape(id), nil, &event); err != nil {
		return Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return event, nil
}

// Create validates and creates an event.
func (e *Events) Create(ctx context.Context, in EventInput) (Event, error) {
	if err := in.Validate(time.Now()); err != nil {
		return Event{}, err
	}
	in.Title = strings.TrimSpace(in.Title)

	var event Event
	if err := e.api.Post(ctx, "/events", in, &event); err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// Join adds the current user to an event and returns the updated event.
func (e *Events) Join(ctx context.Context, id string) (Event, error) {
	var event Event
	if err := e.api.Post(ctx, "/events/"+url.PathEscape(id)+"/join", nil, &event); err != nil {
		return Event{}, fmt.Errorf("join event %s: %w", id, err)
	}
	return event, nil
}

// Leave removes the current user from an event.
func (e *Events) Leave(ctx context.Context, id string) (Event, error) {
	var event Event
	if err := e.api.Post(ctx, "/events/"+url.PathEscape(id)+"/leave", nil, &event); err != nil {
		return Event{}, fmt.Errorf("leave event %s: %w", id, err)
	}
	return event, nil
}

// Delete removes an event the current user organises.
func (e *Events) Delete(ctx context.Context, id string) error {
	if err := e.api.Delete(ctx, "/events/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}
