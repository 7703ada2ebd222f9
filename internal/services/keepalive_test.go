package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestKeepAlivePing(t *testing.T) {
	var hits int32
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	k, err := NewKeepAlive(srv.URL+"/api/health", "@every 14m")
	if err != nil {
		t.Fatalf("new keep-alive: %v", err)
	}
	if err := k.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}

	healthy.Store(false)
	if err := k.Ping(context.Background()); err == nil {
		t.Fatalf("expected an error for a 503")
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 pings, got %d", hits)
	}
}

func TestKeepAliveRejectsBadSchedule(t *testing.T) {
	if _, err := NewKeepAlive("http://localhost/api/health", "every fortnight"); err == nil {
		t.Fatalf("expected schedule error")
	}
}

func TestKeepAliveStartStop(t *testing.T) {
	k, err := NewKeepAlive("http://localhost/api/health", "@every 1h")
	if err != nil {
		t.Fatalf("new keep-alive: %v", err)
	}
	k.Start()
	k.Stop()
}
