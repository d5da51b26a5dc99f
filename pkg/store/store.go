package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/huddle-sports/huddle-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ActionsDispatched counts dispatched actions by type.
var ActionsDispatched = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "huddle_store_actions_total",
		Help: "Total number of actions dispatched to the state store",
	},
	[]string{"action"},
)

// Store owns the current State and serialises Dispatch calls.
type Store struct {
	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextSubID   int
	logger      zerolog.Logger
}

// New creates a store holding initial.
func New(initial State) *Store {
	return &Store{
		state:       initial,
		subscribers: make(map[int]func(State)),
		logger:      logging.NewLogger("store"),
	}
}

// State returns the current state. Callers must treat it as read-only.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a into the current state and notifies subscribers with
// the new state. Callbacks run synchronously on the dispatching goroutine.
func (s *Store) Dispatch(a Action) State {
	name := actionName(a)

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	ActionsDispatched.WithLabelValues(name).Inc()
	s.logger.Debug().Str("action", name).Msg("Action dispatched")

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn to receive the state after every dispatch.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// actionName turns store.ChatsLoaded into "chats_loaded".
func actionName(a Action) string {
	t := fmt.Sprintf("%T", a)
	t = t[strings.LastIndexByte(t, '.')+1:]

	var b strings.Builder
	for i, r := range t {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
