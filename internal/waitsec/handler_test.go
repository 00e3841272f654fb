package waitsec

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: 0.5, want: 0.5},
		{in: 10, want: 10},
		{in: 42, want: 10},
		{in: -3, want: 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Fatalf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWait(t *testing.T) {
	gin.SetMode(gin.TestMode)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   time.Duration
		status int
	}{
		{name: "default", method: http.MethodGet, path: "/wait_sec", want: time.Second, status: 200},
		{name: "query", method: http.MethodGet, path: "/wait_sec?seconds=2.5", want: 2500 * time.Millisecond, status: 200},
		{name: "body wins", method: http.MethodPost, path: "/wait_sec?seconds=2", body: `{"seconds":3}`, want: 3 * time.Second, status: 200},
		{name: "capped", method: http.MethodPost, path: "/wait_sec", body: `{"seconds":60}`, want: 10 * time.Second, status: 200},
		{name: "invalid", method: http.MethodGet, path: "/wait_sec?seconds=soon", status: 400},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var slept time.Duration
			h := &Handler{
				Now: func() time.Time { return start },
				Sleep: func(_ context.Context, d time.Duration) error {
					slept = d
					return nil
				},
			}
			r := gin.New()
			h.RegisterRoutes(r)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
			if tt.status != 200 {
				return
			}
			if slept != tt.want {
				t.Fatalf("expected sleep %s, got %s", tt.want, slept)
			}
			var got Result
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !got.Finished || !got.StartTime.Equal(start) || !got.FinishTime.Equal(start.Add(tt.want)) {
				t.Fatalf("unexpected result %+v", got)
			}
		})
	}
}

func TestSleepHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Hour); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
