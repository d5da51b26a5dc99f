package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/huddle-sports/huddle-client/pkg/pagination"
	"github.com/huddle-sports/huddle-client/pkg/service"
	"github.com/huddle-sports/huddle-client/pkg/sport"
	"github.com/huddle-sports/huddle-client/pkg/store"
	"github.com/spf13/cobra"
)

func eventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Browse, join and organise events",
	}
	cmd.AddCommand(
		eventsListCmd(a),
		eventsAllCmd(a),
		eventsShowCmd(a),
		eventsCreateCmd(a),
		eventsMembershipCmd(a, "join", store.JoinEvent),
		eventsMembershipCmd(a, "leave", store.LeaveEvent),
		eventsDeleteCmd(a),
	)
	return cmd
}

type filterFlags struct {
	sport  string
	lat    float64
	lng    float64
	radius float64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.sport, "sport", "", "only this sport")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude of the search centre")
	cmd.Flags().Float64Var(&f.lng, "lng", 0, "longitude of the search centre")
	cmd.Flags().Float64Var(&f.radius, "radius", 0, "search radius in km (enables --lat/--lng)")
}

func (f filterFlags) filter() (service.Filter, error) {
	filter := service.Filter{Latitude: f.lat, Longitude: f.lng, RadiusKm: f.radius}
	if f.sport != "" {
		filter.Sport = sport.Parse(f.sport)
		if filter.Sport == sport.Other {
			return service.Filter{}, fmt.Errorf("unknown sport %q", f.sport)
		}
	}
	return filter, nil
}

func eventsListCmd(a *app) *cobra.Command {
	var (
		ff      filterFlags
		joined  bool
		created bool
		pages   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events page by page",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter()
			if err != nil {
				return err
			}

			name, source := "events", a.svc.Events.AllFeed(filter)
			switch {
			case joined && created:
				return fmt.Errorf("--joined and --created are exclusive")
			case joined:
				name, source = "joined_events", a.svc.Events.JoinedFeed()
			case created:
				name, source = "created_events", a.svc.Events.CreatedFeed()
			}

			feed := pagination.NewFeed(name, source, pagination.Config{PageSize: a.cfg.Feed.PageSize})
			defer feed.Close()

			out := cmd.OutOrStdout()
			printed := 0
			feed.Subscribe(func(s pagination.Snapshot[service.Event]) {
				if s.State != pagination.StateLoaded {
					return
				}
				for _, e := range s.Items[printed:] {
					printEvent(out, e)
				}
				printed = len(s.Items)
			})

			ctx := cmd.Context()
			if err := feed.Start(ctx, filter.Key()); err != nil {
				return err
			}
			for loaded := 1; pages <= 0 || loaded < pages; loaded++ {
				more, err := feed.LoadMore(ctx)
				if err != nil {
					return err
				}
				if !more {
					break
				}
			}

			snap := feed.Snapshot()
			fmt.Fprintf(out, "%d of %d events (page %d/%d)\n",
				len(snap.Items), snap.TotalElements, snap.PageNumber+1, max(snap.TotalPages, 1))
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().BoolVar(&joined, "joined", false, "events you joined")
	cmd.Flags().BoolVar(&created, "created", false, "events you organise")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load (0 = all)")
	return cmd
}

func eventsAllCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "all",
		Short: "Fetch every matching event in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter()
			if err != nil {
				return err
			}

			bcfg := pagination.DefaultBatchConfig()
			bcfg.MaxConcurrency = a.cfg.Feed.Workers
			events, err := pagination.NewBatchFetcher(a.svc.Events.AllFeed(filter), bcfg).
				FetchAll(cmd.Context(), a.cfg.Feed.PageSize)
			out := cmd.OutOrStdout()
			for _, e := range events {
				printEvent(out, e)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d events\n", len(events))
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}

func eventsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [event-id]",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.svc.Events.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printEvent(out, e)
			fmt.Fprintf(out, "  organiser: %s\n", e.Organizer.Name)
			if e.Location.Name != "" {
				fmt.Fprintf(out, "  where:     %s (%.5f, %.5f)\n", e.Location.Name, e.Location.Latitude, e.Location.Longitude)
			}
			if e.Description != "" {
				fmt.Fprintf(out, "  %s\n", e.Description)
			}
			return nil
		},
	}
}

func eventsCreateCmd(a *app) *cobra.Command {
	var (
		in       service.EventInput
		sportArg string
		ranking  string
		startsAt string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Organise a new event",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.RFC3339, startsAt)
			if err != nil {
				return fmt.Errorf("--starts-at: %w", err)
			}
			in.StartsAt = start
			in.Sport = sport.Parse(sportArg)
			in.Ranking = sport.ParseRanking(ranking)

			e, err := a.svc.Events.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", e.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "event title")
	f.StringVar(&in.Description, "description", "", "event description")
	f.StringVar(&sportArg, "sport", "", "sport")
	f.StringVar(&ranking, "ranking", "", "expected skill level")
	f.StringVar(&startsAt, "starts-at", "", "start time, RFC 3339")
	f.IntVar(&in.MaxParticipants, "max", 10, "maximum participants")
	f.StringVar(&in.Location.Name, "where", "", "location name")
	f.Float64Var(&in.Location.Latitude, "lat", 0, "latitude")
	f.Float64Var(&in.Location.Longitude, "lng", 0, "longitude")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("starts-at")
	return cmd
}

type membershipFlow = func(ctx context.Context, svc *service.Services, st *store.Store, eventID string) error

func eventsMembershipCmd(a *app, verb string, flow membershipFlow) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " [event-id]",
		Short: "Ask to " + verb + " an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flow(cmd.Context(), a.svc, a.state, args[0]); err != nil {
				return err
			}
			e := a.state.State().Events.ByID[args[0]]
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d participants, joined=%t\n",
				e.Title, e.Participants, e.MaxParticipants, e.Joined)
			return nil
		},
	}
}

func eventsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [event-id]",
		Short: "Cancel an event you organise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.Events.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func printEvent(w io.Writer, e service.Event) {
	mark := " "
	switch {
	case e.Joined:
		mark = "*"
	case e.Full():
		mark = "x"
	}
	fmt.Fprintf(w, "%s %-8s %-10s %-12s %s  %d/%d  %s\n",
		mark, e.ID, e.Sport, e.Ranking, e.StartsAt.Local().Format("Mon 02 Jan 15:04"),
		e.Participants, e.MaxParticipants, e.Title)
}
