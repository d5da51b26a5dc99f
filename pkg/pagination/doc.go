// Package pagination implements incremental, page-accumulating feeds on top of
// paginated REST endpoints.
//
// A Feed owns the accumulated items of one view (events near me, joined events,
// chat list, notifications). Page 0 always replaces what was loaded before, later
// pages are appended in fetch order:
//
//	feed := pagination.NewFeed("events_all", events.AllFeed(filter), pagination.DefaultConfig())
//	defer feed.Close()
//
//	if err := feed.Start(ctx, filter.Key()); err != nil {
//		// state is unchanged, loading flags are cleared
//	}
//	for {
//		fetched, err := feed.LoadMore(ctx)
//		if err != nil || !fetched {
//			break
//		}
//	}
//	items := feed.Items()
//
// State transitions:
//
//	Idle -> InitialLoading -> Loaded
//	Loaded -> Refreshing -> Loaded
//	Loaded -> LoadingMore -> Loaded
//
// A failed fetch returns to the previous Idle/Loaded state without touching the
// accumulated items. The error is returned to the caller and kept in
// Snapshot.LastErr until the next successful fetch.
//
// Refresh and dependency changes supersede any fetch still in flight. Results of
// superseded fetches are dropped, as are results arriving after Close.
//
// BatchFetcher is the bulk counterpart: it fetches every page of a source with
// a bounded worker pool and returns the items in page order.
package pagination
