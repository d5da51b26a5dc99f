// Package testutil provides an in-process mock of the Huddle backend for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// Credentials accepted by the mock login endpoint.
const (
	TestEmail    = "ana@huddle.test"
	TestPassword = "secret"
	TestToken    = "token-ana"
)

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockHuddle is a configurable mock Huddle backend. Routes are served by a
// gorilla/mux router over in-memory fixtures; per-path overrides and
// injected failures take precedence.
type MockHuddle struct {
	server    *httptest.Server
	router    *mux.Router
	mu        sync.RWMutex
	overrides map[string]http.HandlerFunc
	failures  map[string][]int

	events        []EventFixture
	chats         []ChatFixture
	messages      map[string][]MessageFixture
	notifications []NotificationFixture
	devices       map[string]string
	nextID        int

	// Tracking
	requestCount      int
	conditionalCount  int
	pathCounts        map[string]int
	lastRequestHeader http.Header
	remaining         int
}

// NewMockHuddle creates a mock backend seeded with the given number of
// public events (every third one joined by the test user, every fifth
// created by them), two chats and three notifications.
func NewMockHuddle(events int) *MockHuddle {
	m := &MockHuddle{
		overrides:  make(map[string]http.HandlerFunc),
		failures:   make(map[string][]int),
		messages:   make(map[string][]MessageFixture),
		devices:    make(map[string]string),
		pathCounts: make(map[string]int),
		remaining:  100,
	}
	m.seed(events)
	m.router = m.routes()
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

func (m *MockHuddle) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/auth/login", m.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", m.authed(m.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", m.authed(m.handleMe)).Methods(http.MethodGet)

	r.HandleFunc("/events", m.handleListEvents).Methods(http.MethodGet)
	r.HandleFunc("/events", m.authed(m.handleCreateEvent)).Methods(http.MethodPost)
	r.HandleFunc("/events/joined", m.authed(m.handleJoinedEvents)).Methods(http.MethodGet)
	r.HandleFunc("/events/created", m.authed(m.handleCreatedEvents)).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}", m.handleGetEvent).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}", m.authed(m.handleDeleteEvent)).Methods(http.MethodDelete)
	r.HandleFunc("/events/{id}/join", m.authed(m.handleMembership(true))).Methods(http.MethodPost)
	r.HandleFunc("/events/{id}/leave", m.authed(m.handleMembership(false))).Methods(http.MethodPost)

	r.HandleFunc("/chats", m.authed(m.handleListChats)).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/messages", m.authed(m.handleListMessages)).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/messages", m.authed(m.handleSendMessage)).Methods(http.MethodPost)

	r.HandleFunc("/notifications", m.authed(m.handleListNotifications)).Methods(http.MethodGet)
	r.HandleFunc("/notifications/unread-count", m.authed(m.handleUnreadCount)).Methods(http.MethodGet)
	r.HandleFunc("/notifications/devices", m.authed(m.handleRegisterDevice)).Methods(http.MethodPost)
	r.HandleFunc("/notifications/devices/{token}", m.authed(m.handleUnregisterDevice)).Methods(http.MethodDelete)
	r.HandleFunc("/notifications/{id}/read", m.authed(m.handleMarkRead)).Methods(http.MethodPost)

	return r
}

func (m *MockHuddle) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	m.pathCounts[r.URL.Path]++
	m.lastRequestHeader = r.Header.Clone()
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.conditionalCount++
	}
	remaining := m.remaining
	if m.remaining > 0 {
		m.remaining--
	}
	override, hasOverride := m.overrides[r.URL.Path]
	failStatus := 0
	if queue := m.failures[r.URL.Path]; len(queue) > 0 {
		failStatus = queue[0]
		m.failures[r.URL.Path] = queue[1:]
	}
	m.mu.Unlock()

	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", "60")

	switch {
	case failStatus != 0:
		writeError(w, failStatus, "injected failure")
	case hasOverride:
		override(w, r)
	default:
		m.router.ServeHTTP(w, r)
	}
}

// URL returns the mock server URL.
func (m *MockHuddle) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockHuddle) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and restores the request budget.
func (m *MockHuddle) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.pathCounts = make(map[string]int)
	m.lastRequestHeader = nil
	m.remaining = 100
}

// SetHandler replaces the handler for an exact path.
func (m *MockHuddle) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[path] = handler
}

// SetResponse configures a canned response for a path.
func (m *MockHuddle) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// FailNext makes the next len(statuses) requests to path fail with the given statuses.
func (m *MockHuddle) FailNext(path string, statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = append(m.failures[path], statuses...)
}

// SetRemaining sets the budget reported in X-RateLimit-Remaining.
func (m *MockHuddle) SetRemaining(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remaining = n
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockHuddle) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockHuddle) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockHuddle) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pathCounts[path]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockHuddle) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader.Clone()
}

// Devices returns the registered push device tokens and their platforms.
func (m *MockHuddle) Devices() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.devices))
	for k, v := range m.devices {
		out[k] = v
	}
	return out
}

// EventCount returns the number of public events.
func (m *MockHuddle) EventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *MockHuddle) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}
