package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxxcyber/trail-guide/internal/client"
)

func weatherCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Current conditions and forecast for Estes Park",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			// Fetched in Fahrenheit and converted by the display preferences
			now, err := a.api.Weather(ctx, "imperial")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s, %s (feels like %s), humidity %d%%\n",
				now.Location, now.Description, a.prefs.Temperature(now.Temperature),
				a.prefs.Temperature(now.FeelsLike), now.Humidity)

			if days == 0 {
				return nil
			}
			forecast, err := a.api.Forecast(ctx, "imperial", days)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "\nDATE\tLOW\tHIGH\tPRECIP\tCONDITIONS")
			for _, d := range forecast {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%s\n", d.Date,
					a.prefs.Temperature(d.TempMin), a.prefs.Temperature(d.TempMax), d.PrecipChance*100, d.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 3, "Forecast days (0 for current conditions only)")
	return cmd
}

func favoriteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorite",
		Short: "Manage favorite trails",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite trails",
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := a.api.Favorites(cmd.Context())
			if err != nil {
				return signInHint(err)
			}
			out := cmd.OutOrStdout()
			if len(favs) == 0 {
				fmt.Fprintln(out, "No favorites yet.")
				return nil
			}
			for _, f := range favs {
				fmt.Fprintf(out, "%s  %s\n", f.TrailID, f.Trail.Name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <trail-id|slug>",
		Short: "Add or remove a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !a.api.SignedIn() {
				return signInHint(client.ErrNotSignedIn)
			}
			t, err := a.api.Trail(ctx, args[0])
			if err != nil {
				return err
			}
			status, err := a.api.ToggleFavorite(ctx, t.ID)
			if err != nil {
				return signInHint(err)
			}
			if status.IsFavorite {
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s to favorites\n", t.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from favorites\n", t.Name)
			}
			return nil
		},
	})
	return cmd
}

// signInHint points the user at login for session errors
func signInHint(err error) error {
	if errors.Is(err, client.ErrNotSignedIn) || errors.Is(err, client.ErrSessionExpired) {
		return fmt.Errorf("%w (run: trailctl login --token <access-token>)", err)
	}
	return err
}

func loginCmd(a *app) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token issued by the auth provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			token = strings.TrimSpace(token)
			exp, err := client.TokenExpiry(token)
			if err != nil {
				return err
			}

			a.cfg.Token = token
			if err := saveConfig(a.configPath, a.cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			me, err := client.New(a.cfg.APIURL, token).Me(cmd.Context())
			if err != nil {
				a.log.Warn("token saved but profile lookup failed", "error", err)
				return nil
			}
			msg := fmt.Sprintf("Signed in as %s", me.Email)
			if !exp.IsZero() {
				msg += fmt.Sprintf(" until %s", exp.Local().Format("Jan 2 15:04"))
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Access token")
	cmd.MarkFlagRequired("token")
	return cmd
}
