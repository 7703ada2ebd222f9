package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsByRoutePattern(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/api/trails/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/metrics", Handler())

	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/trails/:id", "200"))
	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/trails/"+id, nil))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		resp.Body.Close()
	}
	after := testutil.ToFloat64(HTTPRequests.WithLabelValues("GET", "/api/trails/:id", "200"))
	if after-before != 2 {
		t.Fatalf("expected 2 counted requests, got %v", after-before)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("metrics request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "trailguide_http_requests_total") {
		t.Fatalf("exposition missing request counter")
	}
}
