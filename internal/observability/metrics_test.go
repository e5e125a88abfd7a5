package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/auth/verify", "POST", 200, 2*time.Millisecond)
	m.RecordRequest("/auth/verify", "POST", 400, 4*time.Millisecond)
	m.RecordError("/auth/verify", "POST", "INVALID_TOKEN")

	snap := m.Snapshot()
	if snap.Requests["POST /auth/verify 200"] != 1 || snap.Requests["POST /auth/verify 400"] != 1 {
		t.Errorf("requests = %v", snap.Requests)
	}
	if snap.Errors["POST /auth/verify INVALID_TOKEN"] != 1 {
		t.Errorf("errors = %v", snap.Errors)
	}
	if got := snap.AvgLatencyMs["POST /auth/verify"]; got != 3 {
		t.Errorf("avg latency = %v, want 3", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	if len(m.Snapshot().Requests) != 0 {
		t.Error("nil metrics should snapshot empty")
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want propagated value", got)
	}
	if metrics.Snapshot().Requests["GET /ping 200"] != 2 {
		t.Errorf("requests = %v", metrics.Snapshot().Requests)
	}
}
