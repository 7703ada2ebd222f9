package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
)

// KeepAlive pings a health URL on a cron schedule so an idle host does not
// spin the service down
type KeepAlive struct {
	url        string
	httpClient *http.Client
	cron       *cron.Cron
}

// NewKeepAlive schedules pings of url. schedule accepts standard cron specs
// and descriptors such as "@every 14m".
func NewKeepAlive(url, schedule string) (*KeepAlive, error) {
	k := &KeepAlive{
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
		cron:       cron.New(),
	}
	if _, err := k.cron.AddFunc(schedule, k.run); err != nil {
		return nil, fmt.Errorf("invalid keep-alive schedule %q: %w", schedule, err)
	}
	return k, nil
}

// Start begins the schedule in the background
func (k *KeepAlive) Start() {
	k.cron.Start()
	log.Printf("Keep-alive scheduled for %s", k.url)
}

// Stop halts the schedule and waits for a running ping to finish
func (k *KeepAlive) Stop() {
	<-k.cron.Stop().Done()
}

func (k *KeepAlive) run() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if err := k.Ping(ctx); err != nil {
		log.Printf("Keep-alive ping failed: %v", err)
	}
}

// Ping requests the health URL once
func (k *KeepAlive) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	start := time.Now()
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	log.Printf("Keep-alive ping ok in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
