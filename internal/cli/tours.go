package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/tourtrack/internal/location"
	"github.com/me/tourtrack/internal/tours"
	"github.com/me/tourtrack/pkg/model"
)

func newToursCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tours",
		Short: "Browse recorded tours",
	}
	cmd.AddCommand(
		newToursListCmd(),
		newToursShowCmd(),
		newToursNearbyCmd(),
		newToursSummaryCmd(),
		newToursTypesCmd(),
		newToursGeoJSONCmd(),
	)
	return cmd
}

// filterFlags binds the client-side filter options of tours list.
type filterFlags struct {
	set          tours.FilterSet
	minDistance  float64
	maxDistance  float64
	minElevation float64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.set.TourType, "type", "", "Only tours of this type")
	fl.StringVar(&f.set.DateFrom, "from", "", "Only tours on or after this date (YYYY-MM-DD)")
	fl.StringVar(&f.set.DateTo, "to", "", "Only tours on or before this date (YYYY-MM-DD)")
	fl.BoolVar(&f.set.EbikeOnly, "ebike", false, "Only e-bike tours")
	fl.Float64Var(&f.minDistance, "min-distance", 0, "Minimum distance in km")
	fl.Float64Var(&f.maxDistance, "max-distance", 0, "Maximum distance in km")
	fl.Float64Var(&f.minElevation, "min-elevation", 0, "Minimum elevation gain in m")
}

// apply copies the flags into the store's filter set. Bounds are only set
// when their flag was given.
func (f *filterFlags) apply(cmd *cobra.Command, store *tours.Store) {
	fl := cmd.Flags()
	store.UpdateFilters(func(fs *tours.FilterSet) {
		fs.TourType = f.set.TourType
		fs.DateFrom = f.set.DateFrom
		fs.DateTo = f.set.DateTo
		fs.EbikeOnly = f.set.EbikeOnly
		if fl.Changed("min-distance") {
			fs.MinDistance = tours.Float(f.minDistance)
		}
		if fl.Changed("max-distance") {
			fs.MaxDistance = tours.Float(f.maxDistance)
		}
		if fl.Changed("min-elevation") {
			fs.MinElevation = tours.Float(f.minElevation)
		}
	})
}

func newToursListCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tours, filtered client side",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/tours"); err != nil {
				return err
			}
			store := application.Tours
			if err := store.FetchTours(cmd.Context(), nil); err != nil {
				return userError(err)
			}
			filters.apply(cmd, store)

			list := store.Filtered()
			total := len(store.Tours())
			return render(cmd, list, func(w io.Writer) {
				printTourTable(w, list, nil)
				if store.Filters().Active() {
					fmt.Fprintf(w, "\n(%d of %d tours match)\n", len(list), total)
				}
			})
		},
	}

	filters.register(cmd)
	return cmd
}

// printTourTable prints tours; distances, if non-nil, adds a column with the
// distance from the user's position.
func printTourTable(w io.Writer, list []model.Tour, distances map[int]float64) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No tours found.")
		return
	}

	header := fmt.Sprintf("%-6s  %-32s  %-10s  %-10s  %9s  %8s  %-5s", "ID", "NAME", "TYPE", "DATE", "DISTANCE", "ELEV UP", "EBIKE")
	if distances != nil {
		header += "  AWAY"
	}
	fmt.Fprintln(w, header)
	for _, t := range list {
		date := t.Date
		if d, ok := t.Time(); ok {
			date = d.Format("2006-01-02")
		}
		line := fmt.Sprintf("%-6d  %-32s  %-10s  %-10s  %6.1f km  %6.0f m  %-5s",
			t.ID, truncate(t.Name, 32), truncate(t.Type, 10), date, t.DistanceKm, t.ElevationUp, yesNo(t.Ebike))
		if distances != nil {
			line += fmt.Sprintf("  %.1f km", distances[t.ID])
		}
		fmt.Fprintln(w, line)
	}
}

func newToursShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one tour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := enter(cmd, "/tour/"+args[0])
			if err != nil {
				return err
			}
			id, err := strconv.Atoi(m.Param("id"))
			if err != nil {
				return fmt.Errorf("invalid tour id %q", args[0])
			}

			t, err := application.Tours.FetchTourDetail(cmd.Context(), id)
			if err != nil {
				return userError(err)
			}
			return render(cmd, t, func(w io.Writer) {
				fmt.Fprintf(w, "Tour %d: %s\n", t.ID, t.Name)
				fmt.Fprintf(w, "  Type:      %s\n", t.Type)
				fmt.Fprintf(w, "  Date:      %s\n", t.Date)
				fmt.Fprintf(w, "  Distance:  %.2f km\n", t.DistanceKm)
				fmt.Fprintf(w, "  Duration:  %s\n", time.Duration(t.DurationS*float64(time.Second)).Round(time.Second))
				fmt.Fprintf(w, "  Speed:     %.1f km/h\n", t.SpeedKmh)
				fmt.Fprintf(w, "  Elevation: +%.0f m / -%.0f m\n", t.ElevationUp, t.ElevationDown)
				fmt.Fprintf(w, "  Start:     %.5f, %.5f\n", t.StartLat, t.StartLon)
				fmt.Fprintf(w, "  E-bike:    %s\n", yesNo(t.Ebike))
				if t.KomootHref != "" {
					fmt.Fprintf(w, "  Komoot:    %s\n", t.KomootHref)
				}
			})
		},
	}
}

func newToursNearbyCmd() *cobra.Command {
	var (
		lat, lon, radius float64
		watch            bool
		interval         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List tours starting near a position",
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch && interval <= 0 {
				return fmt.Errorf("--interval must be positive, got %s", interval)
			}
			if _, err := enter(cmd, "/map"); err != nil {
				return err
			}
			watcher := location.NewWatcher(location.StaticProvider{Latitude: lat, Longitude: lon}, logger)

			show := func(pos location.Position) error {
				list, err := application.Tours.FetchNearbyTours(cmd.Context(), pos.Latitude, pos.Longitude, radius)
				if err != nil {
					return userError(err)
				}
				distances := make(map[int]float64, len(list))
				for _, t := range list {
					distances[t.ID] = location.Haversine(pos, location.Position{Latitude: t.StartLat, Longitude: t.StartLon})
				}
				slices.SortStableFunc(list, func(a, b model.Tour) int {
					switch {
					case distances[a.ID] < distances[b.ID]:
						return -1
					case distances[a.ID] > distances[b.ID]:
						return 1
					}
					return 0
				})
				return render(cmd, list, func(w io.Writer) { printTourTable(w, list, distances) })
			}

			if !watch {
				pos, err := watcher.Current(cmd.Context())
				if err != nil {
					return err
				}
				return show(pos)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			sub, err := watcher.Watch(ctx, interval, func(pos location.Position) {
				if err := show(pos); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			}, func(err error) {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
			})
			if err != nil {
				return err
			}
			defer sub.Stop()
			<-sub.Done()
			return nil
		},
	}

	fl := cmd.Flags()
	fl.Float64Var(&lat, "lat", 0, "Latitude")
	fl.Float64Var(&lon, "lon", 0, "Longitude")
	fl.Float64Var(&radius, "radius", tours.DefaultRadiusKm, "Search radius in km")
	fl.BoolVar(&watch, "watch", false, "Repeat the search until interrupted")
	fl.DurationVar(&interval, "interval", time.Minute, "Repeat interval with --watch")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	return cmd
}

func newToursSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show tour statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/statistics"); err != nil {
				return err
			}
			s, err := application.Tours.FetchSummary(cmd.Context())
			if err != nil {
				return userError(err)
			}
			return render(cmd, s, func(w io.Writer) {
				fmt.Fprintf(w, "Tours:     %s\n", humanize.Comma(int64(s.TotalTours)))
				fmt.Fprintf(w, "Distance:  %s km\n", humanize.CommafWithDigits(s.TotalDistance, 1))
				fmt.Fprintf(w, "Duration:  %s h\n", humanize.CommafWithDigits(s.TotalDuration/3600, 1))
				fmt.Fprintf(w, "Elevation: %s m\n", humanize.CommafWithDigits(s.TotalElevationUp, 0))
				if len(s.Types) > 0 {
					fmt.Fprintln(w, "By type:")
					types := make([]string, 0, len(s.Types))
					for t := range s.Types {
						types = append(types, t)
					}
					slices.Sort(types)
					for _, t := range types {
						fmt.Fprintf(w, "  %-12s %d\n", t, s.Types[t])
					}
				}
			})
		},
	}
}

func newToursTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List tour types available for filtering",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/tours"); err != nil {
				return err
			}
			store := application.Tours
			if _, err := store.FetchTourTypes(cmd.Context()); err != nil {
				// Fall back to the types seen in the collection.
				logger.Debug("fetch tour types", "error", err)
				if err := store.FetchTours(cmd.Context(), nil); err != nil {
					return userError(err)
				}
			}

			types := store.Types()
			return render(cmd, types, func(w io.Writer) {
				for _, t := range types {
					fmt.Fprintln(w, t)
				}
			})
		},
	}
}

func newToursGeoJSONCmd() *cobra.Command {
	var tourType string

	cmd := &cobra.Command{
		Use:   "geojson",
		Short: "Export tour tracks as GeoJSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := enter(cmd, "/map"); err != nil {
				return err
			}
			params := url.Values{}
			if tourType != "" {
				params.Set("tour_type", tourType)
			}
			fc, err := application.Tours.FetchToursGeoJSON(cmd.Context(), params)
			if err != nil {
				return userError(err)
			}
			data, err := json.Marshal(fc)
			if err != nil {
				return fmt.Errorf("encode geojson: %w", err)
			}
			// Features are opaque; decode generically so yaml output stays readable.
			var doc any
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("decode geojson: %w", err)
			}
			return render(cmd, doc, func(w io.Writer) {
				fmt.Fprintln(w, string(data))
			})
		},
	}

	cmd.Flags().StringVar(&tourType, "type", "", "Only tracks of this tour type")
	return cmd
}
