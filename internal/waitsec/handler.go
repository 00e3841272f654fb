package waitsec

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"warranty-copilot/internal/shared/server/middleware"
	"warranty-copilot/internal/shared/server/respond"
)

const (
	DefaultSeconds = 1.0
	MaxSeconds     = 10.0
)

// Result reports the wait window.
type Result struct {
	Finished   bool      `json:"finished"`
	StartTime  time.Time `json:"start_time"`
	FinishTime time.Time `json:"finish_time"`
}

// Handler serves /wait_sec, a fixed delay used to test copilot timeouts.
type Handler struct {
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewHandler constructs a Handler using the real clock.
func NewHandler() *Handler {
	return &Handler{Now: time.Now, Sleep: sleep}
}

// RegisterRoutes attaches the wait route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/wait_sec", h.wait)
	r.POST("/wait_sec", h.wait)
	r.OPTIONS("/wait_sec", middleware.Preflight)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clamp bounds a requested wait to [0, MaxSeconds].
func Clamp(seconds float64) float64 {
	if seconds > MaxSeconds {
		return MaxSeconds
	}
	if seconds < 0 {
		return 0
	}
	return seconds
}

// requestedSeconds reads "seconds" from the body, then the query.
func requestedSeconds(c *gin.Context) (float64, error) {
	if c.Request.Body != nil {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return 0, err
		}
		if len(strings.TrimSpace(string(raw))) > 0 {
			var body struct {
				Seconds *json.Number `json:"seconds"`
			}
			if err := json.Unmarshal(raw, &body); err != nil {
				return 0, err
			}
			if body.Seconds != nil {
				return body.Seconds.Float64()
			}
		}
	}
	if v, ok := c.GetQuery("seconds"); ok {
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return DefaultSeconds, nil
}

func (h *Handler) wait(c *gin.Context) {
	seconds, err := requestedSeconds(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "seconds must be a number", nil)
		return
	}
	seconds = Clamp(seconds)
	d := time.Duration(seconds * float64(time.Second))

	start := h.Now()
	if err := h.Sleep(c.Request.Context(), d); err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "canceled", "wait canceled", nil)
		return
	}
	respond.OK(c, Result{
		Finished:   true,
		StartTime:  start,
		FinishTime: start.Add(d),
	})
}
