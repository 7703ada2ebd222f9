package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxxcyber/trail-guide/internal/discovery"
	"github.com/foxxcyber/trail-guide/internal/models"
	"github.com/foxxcyber/trail-guide/internal/units"
)

func trailsCmd(a *app) *cobra.Command {
	var search, difficulty, feature, sort string

	cmd := &cobra.Command{
		Use:   "trails",
		Short: "List trails with search, filters and sorting",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := buildFilter(search, difficulty, feature, sort)
			if err != nil {
				return err
			}

			catalog := discovery.NewCatalog(a.api.Trails, 0)
			trails, err := catalog.View(cmd.Context(), f)
			if err != nil {
				return err
			}
			a.log.Debug("trail list loaded", "loaded_at", catalog.LoadedAt(), "total", len(catalog.Trails()), "visible", len(trails))

			printTrails(cmd.OutOrStdout(), a.prefs, trails)
			return nil
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Free-text search")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "all", "all, easy, moderate or hard")
	cmd.Flags().StringVarP(&feature, "feature", "f", "", "closest, dog_friendly, kid_friendly, waterfall, lake or summit")
	cmd.Flags().StringVar(&sort, "sort", string(discovery.SortPopular), "popular, rating, distance_asc, distance_desc or name")
	return cmd
}

func buildFilter(search, difficulty, feature, sort string) (discovery.Filter, error) {
	f := discovery.DefaultFilter()
	f.Query = search

	d, ok := discovery.ParseDifficulty(difficulty)
	if !ok {
		return f, fmt.Errorf("unknown difficulty %q", difficulty)
	}
	f.Difficulty = d

	feat, ok := discovery.ParseFeature(feature)
	if !ok {
		return f, fmt.Errorf("unknown feature %q", feature)
	}
	f.Feature = feat

	if sort != "" {
		f.Sort = discovery.SortOption(strings.ToLower(sort))
	}
	return f, nil
}

func featuredCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "featured",
		Short: "List featured trails",
		RunE: func(cmd *cobra.Command, args []string) error {
			trails, err := a.api.Featured(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printTrails(cmd.OutOrStdout(), a.prefs, trails)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 6, "Number of trails")
	return cmd
}

func trailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "trail <id|slug>",
		Short: "Show one trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.api.Trail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTrail(cmd.OutOrStdout(), a.prefs, t)
			return nil
		},
	}
}

func rating(t *models.Trail) string {
	if t.AvgRating == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d)", *t.AvgRating, t.ReviewCount)
}

func printTrails(w io.Writer, prefs units.DisplayPreferences, trails []*models.Trail) {
	if len(trails) == 0 {
		fmt.Fprintln(w, "No trails match.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tAREA\tDIFFICULTY\tDISTANCE\tGAIN\tRATING")
	for _, t := range trails {
		prefs.Label(t)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Name, t.ParkArea, t.Difficulty, dash(t.DistanceLabel), dash(t.ElevationLabel), rating(t))
	}
	tw.Flush()
}

func printTrail(w io.Writer, prefs units.DisplayPreferences, t *models.Trail) {
	prefs.Label(t)
	fmt.Fprintf(w, "%s (%s)\n", t.Name, t.Slug)
	fmt.Fprintf(w, "  Area:       %s\n", t.ParkArea)
	fmt.Fprintf(w, "  Trailhead:  %s\n", t.TrailheadName)
	fmt.Fprintf(w, "  Route:      %s, %s\n", t.RouteType, t.Difficulty)
	fmt.Fprintf(w, "  Distance:   %s, gain %s\n", dash(t.DistanceLabel), dash(t.ElevationLabel))
	fmt.Fprintf(w, "  Rating:     %s\n", rating(t))
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "  Tags:       %s\n", strings.Join(t.Tags, ", "))
	}
	if t.ShortDescription != "" {
		fmt.Fprintf(w, "\n%s\n", t.ShortDescription)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
