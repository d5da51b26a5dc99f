package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// BatchConfig holds batch fetcher configuration
type BatchConfig struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// Timeout per page fetch
	Timeout time.Duration
	// MaxPages caps the number of pages fetched (0 = no cap)
	MaxPages int
}

// DefaultBatchConfig returns safe default configuration for the Huddle API
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxConcurrency: 4,
		Timeout:        15 * time.Second,
		MaxPages:       200,
	}
}

// pageResult represents the result of fetching a single page
type pageResult[T any] struct {
	PageNumber int
	Items      []T
	Error      error
}

// BatchFetcher fetches every page of a source in parallel
type BatchFetcher[T any] struct {
	fetch  FetchFunc[T]
	config BatchConfig
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](fetch FetchFunc[T], config BatchConfig) *BatchFetcher[T] {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher[T]{
		fetch:  fetch,
		config: config,
	}
}

// FetchAll fetches all pages using a worker pool and returns the items in page order.
// On a page failure the items of the pages before the first gap are returned
// together with the error.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, pageSize int) ([]T, error) {
	start := time.Now()

	// Fetch first page to get total page count
	first, err := bf.fetchOne(ctx, 0, pageSize)
	if err != nil {
		BatchPagesFetched.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}
	BatchPagesFetched.WithLabelValues("ok").Inc()

	totalPages := first.TotalPages
	if bf.config.MaxPages > 0 && totalPages > bf.config.MaxPages {
		log.Warn().
			Int("total_pages", totalPages).
			Int("max_pages", bf.config.MaxPages).
			Msg("Capping batch fetch")
		totalPages = bf.config.MaxPages
	}

	log.Info().
		Int("total_pages", totalPages).
		Int("total_elements", first.TotalElements).
		Msg("Starting parallel page fetch")

	// Single page optimization
	if totalPages <= 1 {
		log.Info().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return first.Items, nil
	}

	pages := make([][]T, totalPages)
	done := make([]bool, totalPages)
	pages[0] = first.Items
	done[0] = true

	pageQueue := make(chan int, totalPages)
	results := make(chan pageResult[T], totalPages)

	for page := 1; page < totalPages; page++ {
		pageQueue <- page
	}
	close(pageQueue)

	var wg sync.WaitGroup
	for i := 0; i < bf.config.MaxConcurrency; i++ {
		wg.Add(1)
		go bf.worker(ctx, pageSize, pageQueue, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	fetchedPages := 1
	var firstErr error
	failedPage := -1
	for result := range results {
		if result.Error != nil {
			BatchPagesFetched.WithLabelValues("error").Inc()
			log.Warn().
				Err(result.Error).
				Int("page", result.PageNumber).
				Msg("Page fetch failed")
			if failedPage < 0 || result.PageNumber < failedPage {
				failedPage = result.PageNumber
				firstErr = result.Error
			}
			continue
		}

		BatchPagesFetched.WithLabelValues("ok").Inc()
		pages[result.PageNumber] = result.Items
		done[result.PageNumber] = true
		fetchedPages++
	}

	if err := ctx.Err(); err != nil && firstErr == nil {
		for i, ok := range done {
			if !ok {
				failedPage = i
				firstErr = err
				break
			}
		}
	}

	if firstErr != nil {
		items := flatten(pages[:failedPage])
		log.Warn().
			Err(firstErr).
			Int("fetched_pages", fetchedPages).
			Int("total_pages", totalPages).
			Msg("Batch fetch incomplete - returning partial results")
		return items, fmt.Errorf("page %d failed (partial data: %d/%d pages): %w", failedPage, fetchedPages, totalPages, firstErr)
	}

	items := flatten(pages)
	log.Info().
		Int("pages", fetchedPages).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

func (bf *BatchFetcher[T]) fetchOne(ctx context.Context, pageNumber, pageSize int) (Page[T], error) {
	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()
	return bf.fetch(pageCtx, pageNumber, pageSize)
}

// worker processes pages from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, pageSize int, pageQueue <-chan int, results chan<- pageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	pagesProcessed := 0

	for pageNum := range pageQueue {
		select {
		case <-ctx.Done():
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", pagesProcessed).
				Msg("Worker stopping (context cancelled)")
			return
		default:
		}

		page, err := bf.fetchOne(ctx, pageNum, pageSize)
		// results is buffered for every page, so sends never block
		results <- pageResult[T]{PageNumber: pageNum, Items: page.Items, Error: err}
		if err == nil {
			pagesProcessed++
		}
	}

	if pagesProcessed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", pagesProcessed).
			Msg("Worker completed")
	}
}

func flatten[T any](pages [][]T) []T {
	n := 0
	for _, p := range pages {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range pages {
		out = append(out, p...)
	}
	return out
}
