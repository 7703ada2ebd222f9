package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/foxxcyber/trail-guide/internal/models"
	"github.com/foxxcyber/trail-guide/internal/sos"
)

// openQueue opens the configured queue backend
func (a *app) openQueue() (*sos.Queue, func(), error) {
	switch a.cfg.Queue.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: a.cfg.Queue.RedisAddr})
		return sos.NewQueue(sos.NewRedisStore(rdb)), func() { rdb.Close() }, nil
	default:
		if err := os.MkdirAll(filepath.Dir(a.cfg.Queue.Path), 0o700); err != nil {
			return nil, nil, err
		}
		store, err := sos.OpenSQLiteStore(a.cfg.Queue.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open queue: %w", err)
		}
		return sos.NewQueue(store), func() { store.Close() }, nil
	}
}

// fixLocator returns a position given on the command line
type fixLocator struct {
	lat, lon float64
	set      bool
}

func (l fixLocator) LastKnown(context.Context) (*models.Location, error) {
	if !l.set {
		return nil, errors.New("no position given (use --lat and --lon)")
	}
	return &models.Location{Latitude: l.lat, Longitude: l.lon, Timestamp: time.Now()}, nil
}

// printComposer shows the message a phone would open in its messaging app
type printComposer struct{ w io.Writer }

func (p printComposer) Compose(_ context.Context, to, body string) error {
	fmt.Fprintf(p.w, "\nSend to %s:\n  %s\n", to, body)
	return nil
}

func sosCmd(a *app) *cobra.Command {
	var (
		lat, lon  float64
		trailName string
		ticks     int
	)

	cmd := &cobra.Command{
		Use:   "sos",
		Short: "Raise an SOS after a cancellable countdown (Ctrl-C cancels)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			countdown := sos.NewCountdown()
			countdown.Ticks = ticks
			countdown.OnTick = func(remaining int) {
				fmt.Fprintf(out, "\aSending SOS in %d... (Ctrl-C to cancel)\n", remaining)
			}
			if err := countdown.Run(ctx); err != nil {
				if errors.Is(err, sos.ErrCancelled) {
					fmt.Fprintln(out, "SOS cancelled. Nothing was sent.")
					return nil
				}
				return err
			}
			stop()

			queue, closeQueue, err := a.openQueue()
			if err != nil {
				return err
			}
			defer closeQueue()

			d := &sos.Dispatcher{
				Locator:  fixLocator{lat: lat, lon: lon, set: cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon")},
				Composer: printComposer{w: out},
				Prober:   a.api,
				Writer:   a.api,
				Queue:    queue,
				Logger:   a.log,
			}
			trip := sos.Trip{Name: a.cfg.Name, Contacts: a.cfg.Contacts}
			if trailName != "" {
				trip.TrailName = &trailName
			}

			res, err := d.Dispatch(cmd.Context(), trip)
			if err != nil {
				return err
			}
			if len(a.cfg.Contacts) == 0 {
				fmt.Fprintln(out, "No emergency contacts configured; add them under contacts: in the config file.")
			}
			if res.Queued {
				fmt.Fprintf(out, "Offline: SOS %s queued and will be sent when the connection returns.\n", res.Alert.ID)
			} else {
				fmt.Fprintf(out, "SOS %s recorded.\n", res.Alert.ID)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude of your position")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude of your position")
	cmd.Flags().StringVar(&trailName, "trail", "", "Trail you are on")
	cmd.Flags().IntVar(&ticks, "countdown", sos.DefaultTicks, "Countdown seconds")
	return cmd
}

func queueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect or flush SOS alerts waiting for connectivity",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List pending alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, closeQueue, err := a.openQueue()
			if err != nil {
				return err
			}
			defer closeQueue()

			pending, err := queue.Pending(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(pending) == 0 {
				fmt.Fprintln(out, "No pending alerts.")
				return nil
			}
			for _, p := range pending {
				fmt.Fprintf(out, "%s  %s  %s\n", p.ID, p.CreatedAt.Local().Format("Jan 2 15:04"), p.Message)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "flush",
		Short: "Send pending alerts now",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, closeQueue, err := a.openQueue()
			if err != nil {
				return err
			}
			defer closeQueue()

			res, err := queue.Flush(cmd.Context(), a.api)
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %d, %d still pending\n", res.Sent, res.Remaining)
			return signInHint(err)
		},
	})
	return cmd
}

func watchCmd(a *app) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Flush queued alerts whenever connectivity returns",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			queue, closeQueue, err := a.openQueue()
			if err != nil {
				return err
			}
			defer closeQueue()

			m := &sos.Monitor{
				Prober:   a.api,
				Queue:    queue,
				Writer:   a.api,
				Interval: interval,
				Logger:   a.log,
			}
			a.log.Info("watching connectivity", "api", a.cfg.APIURL, "interval", interval)
			m.Run(ctx)
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 15*time.Second, "Probe interval")
	return cmd
}
