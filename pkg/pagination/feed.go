package pagination

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrClosed is returned by operations on a feed after Close.
	ErrClosed = errors.New("feed closed")

	// ErrInFlight is returned by FetchPage for a page > 0 while another fetch is running.
	ErrInFlight = errors.New("feed fetch already in flight")

	// ErrSuperseded is returned when a refresh, dependency change or Close
	// replaced the operation before its result could be applied.
	ErrSuperseded = errors.New("feed operation superseded")
)

// State is the lifecycle state of a Feed.
type State int

const (
	StateIdle State = iota
	StateInitialLoading
	StateLoaded
	StateRefreshing
	StateLoadingMore
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialLoading:
		return "initial_loading"
	case StateLoaded:
		return "loaded"
	case StateRefreshing:
		return "refreshing"
	case StateLoadingMore:
		return "loading_more"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds feed configuration.
type Config struct {
	// PageSize is the number of items requested per page.
	PageSize int

	// RefreshDelay is waited before a refresh fetch (pull-to-refresh smoothing).
	RefreshDelay time.Duration

	// LoadMoreDelay is waited before a load-more fetch.
	LoadMoreDelay time.Duration
}

// DefaultConfig returns the configuration used by the app's list screens.
func DefaultConfig() Config {
	return Config{
		PageSize:      10,
		RefreshDelay:  500 * time.Millisecond,
		LoadMoreDelay: 300 * time.Millisecond,
	}
}

// Snapshot is an immutable copy of a feed's accumulated state.
type Snapshot[T any] struct {
	Items         []T
	PageNumber    int
	TotalPages    int
	TotalElements int
	Dependency    string
	State         State

	InitialLoading bool
	Refreshing     bool
	LoadingMore    bool

	// LastErr is the error of the most recent failed fetch, cleared on success.
	LastErr error
}

type fetchKind string

const (
	kindInitial  fetchKind = "initial"
	kindRefresh  fetchKind = "refresh"
	kindLoadMore fetchKind = "load_more"
	kindPage     fetchKind = "page"
)

// Feed accumulates the pages of one paginated source.
type Feed[T any] struct {
	name   string
	fetch  FetchFunc[T]
	config Config
	logger zerolog.Logger

	// closeCtx is cancelled by Close and aborts every in-flight fetch.
	closeCtx   context.Context
	closeFeed  context.CancelFunc
	cancelLoad context.CancelFunc

	mu            sync.Mutex
	items         []T
	pageNumber    int
	totalPages    int
	totalElements int
	loaded        bool
	started       bool
	dependency    string
	lastErr       error

	initialLoading bool
	refreshing     bool
	loadingMore    bool
	inFlight       bool
	generation     uint64
	closed         bool

	subscribers map[int]func(Snapshot[T])
	nextSubID   int
}

// NewFeed creates an empty feed. Nothing is fetched until Start or the
// first LoadMore.
func NewFeed[T any](name string, fetch FetchFunc[T], cfg Config) *Feed[T] {
	if fetch == nil {
		panic("pagination: fetch function cannot be nil")
	}
	defaults := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaults.PageSize
	}
	if cfg.RefreshDelay < 0 {
		cfg.RefreshDelay = 0
	}
	if cfg.LoadMoreDelay < 0 {
		cfg.LoadMoreDelay = 0
	}

	closeCtx, closeFeed := context.WithCancel(context.Background())

	return &Feed[T]{
		name:        name,
		fetch:       fetch,
		config:      cfg,
		logger:      log.With().Str("component", "feed").Str("feed", name).Logger(),
		closeCtx:    closeCtx,
		closeFeed:   closeFeed,
		subscribers: make(map[int]func(Snapshot[T])),
	}
}

// Start performs the initial load of page 0 for the given dependency key.
func (f *Feed[T]) Start(ctx context.Context, dependency string) error {
	return f.reset(ctx, dependency, true)
}

// SetDependency resets the feed to page 0 when the dependency key changed
// (filter, location, selected user). An unchanged key is a no-op.
func (f *Feed[T]) SetDependency(ctx context.Context, dependency string) error {
	return f.reset(ctx, dependency, false)
}

func (f *Feed[T]) reset(ctx context.Context, dependency string, force bool) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if !force && f.started && f.dependency == dependency {
		f.mu.Unlock()
		return nil
	}
	if f.started && f.dependency != dependency {
		f.logger.Debug().
			Str("from", f.dependency).
			Str("to", dependency).
			Msg("Dependency changed, resetting feed")
		f.items = nil
		f.pageNumber = 0
		f.totalPages = 0
		f.totalElements = 0
		f.loaded = false
		f.lastErr = nil
	}
	f.started = true
	f.dependency = dependency
	op, err := f.claimLocked(ctx, kindInitial, 0, f.config.PageSize, 0)
	f.mu.Unlock()
	if err != nil {
		return err
	}

	_, err = f.run(op)
	return err
}

// FetchPage fetches a single page without delay. Page 0 replaces the
// accumulated items, any later page is appended.
func (f *Feed[T]) FetchPage(ctx context.Context, pageNumber, pageSize int) (Page[T], error) {
	if pageNumber < 0 {
		return Page[T]{}, fmt.Errorf("invalid page number %d", pageNumber)
	}
	if pageSize <= 0 {
		pageSize = f.config.PageSize
	}
	return f.load(ctx, kindPage, pageNumber, pageSize, 0)
}

// Refresh discards every accumulated page and re-fetches page 0 after RefreshDelay.
func (f *Feed[T]) Refresh(ctx context.Context) error {
	_, err := f.load(ctx, kindRefresh, 0, f.config.PageSize, f.config.RefreshDelay)
	return err
}

// LoadMore fetches and appends the next page after LoadMoreDelay. On a feed
// that holds no page yet it performs the initial load instead.
// It reports false without fetching when a load is in flight or the last
// page has already been loaded.
func (f *Feed[T]) LoadMore(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false, ErrClosed
	}

	kind, next, delay := kindLoadMore, f.pageNumber+1, f.config.LoadMoreDelay
	reason := ""
	switch {
	case f.inFlight:
		reason = "in_flight"
	case !f.loaded:
		kind, next, delay = kindInitial, 0, 0
		f.started = true
	case next >= f.totalPages:
		reason = "last_page"
	}
	if reason != "" {
		f.mu.Unlock()
		LoadMoreSkipped.WithLabelValues(f.name, reason).Inc()
		f.logger.Debug().Str("reason", reason).Msg("Load more skipped")
		return false, nil
	}

	op, err := f.claimLocked(ctx, kind, next, f.config.PageSize, delay)
	f.mu.Unlock()
	if err != nil {
		return false, err
	}

	_, err = f.run(op)
	return true, err
}

// fetchOp is one claimed fetch. gen is the generation it was claimed under;
// its result is applied only while the generation is unchanged.
type fetchOp struct {
	kind     fetchKind
	page     int
	size     int
	delay    time.Duration
	gen      uint64
	ctx      context.Context
	cancel   context.CancelFunc
	stopLink func() bool
}

func (f *Feed[T]) load(ctx context.Context, kind fetchKind, pageNumber, pageSize int, delay time.Duration) (Page[T], error) {
	f.mu.Lock()
	op, err := f.claimLocked(ctx, kind, pageNumber, pageSize, delay)
	f.mu.Unlock()
	if err != nil {
		return Page[T]{}, err
	}
	return f.run(op)
}

// claimLocked marks a fetch as in flight. Page 0 supersedes whatever is in
// flight; a later page is refused with ErrInFlight. f.mu must be held.
func (f *Feed[T]) claimLocked(ctx context.Context, kind fetchKind, pageNumber, pageSize int, delay time.Duration) (*fetchOp, error) {
	replaces := pageNumber == 0

	if f.closed {
		return nil, ErrClosed
	}
	if !replaces && f.inFlight {
		LoadMoreSkipped.WithLabelValues(f.name, "in_flight").Inc()
		return nil, ErrInFlight
	}
	if replaces {
		f.generation++
		if f.cancelLoad != nil {
			f.cancelLoad()
		}
		f.loadingMore = false
		f.refreshing = false
		f.initialLoading = false
	}
	switch kind {
	case kindInitial:
		f.initialLoading = true
	case kindRefresh:
		f.refreshing = true
	case kindLoadMore:
		f.loadingMore = true
	case kindPage:
		if replaces && !f.loaded {
			f.initialLoading = true
		} else if replaces {
			f.refreshing = true
		} else {
			f.loadingMore = true
		}
	}
	f.inFlight = true

	opCtx, cancel := context.WithCancel(ctx)
	f.cancelLoad = cancel
	return &fetchOp{
		kind:     kind,
		page:     pageNumber,
		size:     pageSize,
		delay:    delay,
		gen:      f.generation,
		ctx:      opCtx,
		cancel:   cancel,
		stopLink: context.AfterFunc(f.closeCtx, cancel),
	}, nil
}

// run performs a claimed fetch and applies its result.
func (f *Feed[T]) run(op *fetchOp) (Page[T], error) {
	defer op.stopLink()
	defer op.cancel()
	f.notify()

	kind, pageNumber := string(op.kind), op.page

	start := time.Now()
	var page Page[T]
	err := wait(op.ctx, op.delay)
	if err == nil {
		page, err = f.fetch(op.ctx, pageNumber, op.size)
	}
	FeedFetchDuration.WithLabelValues(f.name).Observe(time.Since(start).Seconds())

	f.mu.Lock()
	if f.closed || op.gen != f.generation {
		closed := f.closed
		f.mu.Unlock()
		FeedFetches.WithLabelValues(f.name, kind, "superseded").Inc()
		f.logger.Debug().
			Str("kind", kind).
			Int("page", pageNumber).
			Msg("Dropping superseded page result")
		if closed {
			return Page[T]{}, ErrClosed
		}
		return Page[T]{}, ErrSuperseded
	}

	f.inFlight = false
	f.cancelLoad = nil
	f.initialLoading = false
	f.refreshing = false
	f.loadingMore = false

	if err != nil {
		f.lastErr = err
		f.mu.Unlock()
		FeedFetches.WithLabelValues(f.name, kind, "error").Inc()
		f.logger.Error().
			Err(err).
			Str("kind", kind).
			Int("page", pageNumber).
			Msg("Page fetch failed")
		f.notify()
		return Page[T]{}, fmt.Errorf("fetch page %d: %w", pageNumber, err)
	}

	if pageNumber == 0 {
		f.items = slices.Clone(page.Items)
	} else {
		f.items = append(f.items, page.Items...)
	}
	f.pageNumber = pageNumber
	f.totalPages = page.TotalPages
	f.totalElements = page.TotalElements
	f.loaded = true
	f.lastErr = nil
	total := len(f.items)
	f.mu.Unlock()

	outcome := "ok"
	if len(page.Items) == 0 {
		outcome = "empty"
		f.logger.Warn().
			Str("kind", kind).
			Int("page", pageNumber).
			Msg("Page returned no items")
	}
	FeedFetches.WithLabelValues(f.name, kind, outcome).Inc()
	f.logger.Debug().
		Str("kind", kind).
		Int("page", pageNumber).
		Int("items", len(page.Items)).
		Int("accumulated", total).
		Int("total_pages", page.TotalPages).
		Msg("Page applied")

	f.notify()
	return page, nil
}

// wait sleeps for delay unless ctx is done first.
func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Snapshot returns a copy of the current state.
func (f *Feed[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Feed[T]) snapshotLocked() Snapshot[T] {
	s := Snapshot[T]{
		Items:          slices.Clone(f.items),
		PageNumber:     f.pageNumber,
		TotalPages:     f.totalPages,
		TotalElements:  f.totalElements,
		Dependency:     f.dependency,
		InitialLoading: f.initialLoading,
		Refreshing:     f.refreshing,
		LoadingMore:    f.loadingMore,
		LastErr:        f.lastErr,
	}
	switch {
	case f.initialLoading:
		s.State = StateInitialLoading
	case f.refreshing:
		s.State = StateRefreshing
	case f.loadingMore:
		s.State = StateLoadingMore
	case f.loaded:
		s.State = StateLoaded
	default:
		s.State = StateIdle
	}
	return s
}

// Items returns a copy of the accumulated items.
func (f *Feed[T]) Items() []T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

// Subscribe registers fn to receive a snapshot after every state change.
// Callbacks run synchronously on the goroutine that changed the state.
func (f *Feed[T]) Subscribe(fn func(Snapshot[T])) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.subscribers, id)
		f.mu.Unlock()
	}
}

func (f *Feed[T]) notify() {
	f.mu.Lock()
	if len(f.subscribers) == 0 {
		f.mu.Unlock()
		return
	}
	snap := f.snapshotLocked()
	subs := make([]func(Snapshot[T]), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Close cancels any in-flight fetch and releases subscribers. Results that
// arrive afterwards are dropped.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.inFlight = false
	f.initialLoading = false
	f.refreshing = false
	f.loadingMore = false
	f.subscribers = make(map[int]func(Snapshot[T]))
	f.mu.Unlock()

	f.closeFeed()
	f.logger.Debug().Msg("Feed closed")
}
