package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// writeData writes a {"data": ...} envelope. GET responses carry an ETag
// and answer a matching If-None-Match with 304.
func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	body, err := json.Marshal(map[string]any{"data": data})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if r.Method == http.MethodGet {
		sum := sha256.Sum256(body)
		etag := `"` + hex.EncodeToString(sum[:8]) + `"`
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.WriteHeader(status)
	w.Write(body)
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

// pageParams reads page and size, defaulting to 0 and 10.
func pageParams(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		size = 10
	}
	return page, size
}

func paginate[T any](items []T, page, size int) (slice []T, totalPages int) {
	totalPages = (len(items) + size - 1) / size
	start := page * size
	if start >= len(items) {
		return []T{}, totalPages
	}
	end := min(start+size, len(items))
	return append([]T{}, items[start:end]...), totalPages
}

// nativePage uses the items/pageNumber field names.
func nativePage[T any](r *http.Request, items []T) map[string]any {
	page, size := pageParams(r)
	slice, totalPages := paginate(items, page, size)
	return map[string]any{
		"items":         slice,
		"totalElements": len(items),
		"totalPages":    totalPages,
		"pageNumber":    page,
	}
}

// springPage uses the content/number field names.
func springPage[T any](r *http.Request, items []T) map[string]any {
	page, size := pageParams(r)
	slice, totalPages := paginate(items, page, size)
	return map[string]any{
		"content":       slice,
		"totalElements": len(items),
		"totalPages":    totalPages,
		"number":        page,
		"size":          size,
	}
}

func (m *MockHuddle) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+TestToken {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}

func (m *MockHuddle) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if creds.Email != TestEmail || creds.Password != TestPassword {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeData(w, r, http.StatusOK, map[string]any{
		"accessToken":  TestToken,
		"refreshToken": "refresh-ana",
		"user":         TestUser,
	})
}

func (m *MockHuddle) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, nil)
}

func (m *MockHuddle) handleMe(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, TestUser)
}

func (m *MockHuddle) filterEvents(keep func(EventFixture) bool) []EventFixture {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []EventFixture{}
	for _, e := range m.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (m *MockHuddle) handleListEvents(w http.ResponseWriter, r *http.Request) {
	sportName := r.URL.Query().Get("sport")
	events := m.filterEvents(func(e EventFixture) bool {
		return sportName == "" || e.Sport == sportName
	})
	writeData(w, r, http.StatusOK, nativePage(r, events))
}

func (m *MockHuddle) handleJoinedEvents(w http.ResponseWriter, r *http.Request) {
	events := m.filterEvents(func(e EventFixture) bool { return e.Joined })
	writeData(w, r, http.StatusOK, nativePage(r, events))
}

func (m *MockHuddle) handleCreatedEvents(w http.ResponseWriter, r *http.Request) {
	events := m.filterEvents(func(e EventFixture) bool { return e.Organizer.ID == TestUser.ID })
	writeData(w, r, http.StatusOK, nativePage(r, events))
}

// findEvent returns the index of the event with id, or -1. Callers hold m.mu.
func (m *MockHuddle) findEvent(id string) int {
	for i, e := range m.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (m *MockHuddle) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	i := m.findEvent(mux.Vars(r)["id"])
	var event EventFixture
	if i >= 0 {
		event = m.events[i]
	}
	m.mu.RUnlock()

	if i < 0 {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeData(w, r, http.StatusOK, event)
}

func (m *MockHuddle) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in EventFixture
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	m.mu.Lock()
	in.ID = m.newID("evt-new")
	in.Organizer = TestUser
	in.Participants = 1
	in.Joined = true
	m.events = append([]EventFixture{in}, m.events...)
	m.mu.Unlock()

	writeData(w, r, http.StatusCreated, in)
}

func (m *MockHuddle) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	i := m.findEvent(mux.Vars(r)["id"])
	switch {
	case i < 0:
		m.mu.Unlock()
		writeError(w, http.StatusNotFound, "event not found")
		return
	case m.events[i].Organizer.ID != TestUser.ID:
		m.mu.Unlock()
		writeError(w, http.StatusForbidden, "only the organizer can delete the event")
		return
	}
	m.events = append(m.events[:i], m.events[i+1:]...)
	m.mu.Unlock()

	writeData(w, r, http.StatusOK, nil)
}

func (m *MockHuddle) handleMembership(join bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		i := m.findEvent(mux.Vars(r)["id"])
		if i < 0 {
			m.mu.Unlock()
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		event := &m.events[i]
		switch {
		case join && event.Joined, !join && !event.Joined:
			// idempotent
		case join && event.Participants >= event.MaxParticipants:
			m.mu.Unlock()
			writeError(w, http.StatusConflict, "event is full")
			return
		case join:
			event.Joined = true
			event.Participants++
		default:
			event.Joined = false
			event.Participants--
		}
		out := *event
		m.mu.Unlock()

		writeData(w, r, http.StatusOK, out)
	}
}

func (m *MockHuddle) handleListChats(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	chats := append([]ChatFixture{}, m.chats...)
	m.mu.RUnlock()
	writeData(w, r, http.StatusOK, nativePage(r, chats))
}

func (m *MockHuddle) handleListMessages(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]

	m.mu.RLock()
	stored, ok := m.messages[chatID]
	// newest first
	msgs := make([]MessageFixture, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		msgs = append(msgs, stored[i])
	}
	m.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	writeData(w, r, http.StatusOK, nativePage(r, msgs))
}

func (m *MockHuddle) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]
	var in struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &in); err != nil || strings.TrimSpace(in.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	m.mu.Lock()
	if _, ok := m.messages[chatID]; !ok {
		m.mu.Unlock()
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	msg := MessageFixture{
		ID:     m.newID(chatID + "-m"),
		ChatID: chatID,
		Sender: TestUser,
		Text:   in.Text,
		SentAt: time.Now().UTC(),
	}
	m.messages[chatID] = append(m.messages[chatID], msg)
	m.mu.Unlock()

	writeData(w, r, http.StatusCreated, msg)
}

func (m *MockHuddle) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	notifications := append([]NotificationFixture{}, m.notifications...)
	m.mu.RUnlock()
	writeData(w, r, http.StatusOK, springPage(r, notifications))
}

func (m *MockHuddle) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	count := 0
	for _, n := range m.notifications {
		if !n.Read {
			count++
		}
	}
	m.mu.RUnlock()
	writeData(w, r, http.StatusOK, map[string]int{"count": count})
}

func (m *MockHuddle) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	m.mu.Lock()
	found := false
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications[i].Read = true
			found = true
		}
	}
	m.mu.Unlock()

	if !found {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	writeData(w, r, http.StatusOK, nil)
}

func (m *MockHuddle) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	if err := decodeBody(r, &in); err != nil || in.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	m.mu.Lock()
	m.devices[in.Token] = in.Platform
	m.mu.Unlock()

	writeData(w, r, http.StatusCreated, nil)
}

func (m *MockHuddle) handleUnregisterDevice(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	m.mu.Lock()
	_, ok := m.devices[token]
	delete(m.devices, token)
	m.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "device not registered")
		return
	}
	writeData(w, r, http.StatusOK, nil)
}
