package teams

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"warranty-copilot/internal/shared/metrics"
	"warranty-copilot/internal/shared/server/middleware"
	"warranty-copilot/internal/shared/server/respond"
	"warranty-copilot/internal/shared/telemetry"
)

// Sender delivers a card.
type Sender interface {
	Send(ctx context.Context, card Card) error
}

// Handler serves /ms_teams_error_messenger.
type Handler struct {
	Sender  Sender
	Mention string
	Now     func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(sender Sender, mention string) *Handler {
	return &Handler{Sender: sender, Mention: mention, Now: time.Now}
}

// RegisterRoutes attaches the messenger route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/ms_teams_error_messenger", h.send)
	r.OPTIONS("/ms_teams_error_messenger", middleware.Preflight)
}

func (h *Handler) send(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", []map[string]string{
			{"field": "body", "issue": err.Error()},
		})
		return
	}
	c.Set(middleware.CopilotKey, req.Topic)
	c.Set(middleware.SubtopicKey, req.Subtopic)

	card := BuildCard(req, h.Mention, h.Now())
	err := h.Sender.Send(c.Request.Context(), card)
	metrics.IncTeams(err == nil)
	if err != nil {
		telemetry.Error("teams.send_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err,
		})
		if errors.Is(err, ErrNotConfigured) {
			respond.Error(c, http.StatusServiceUnavailable, "not_configured", "teams webhook not configured", nil)
			return
		}
		respond.Error(c, http.StatusBadGateway, "upstream_error", "failed to post teams message", nil)
		return
	}
	c.String(http.StatusOK, "OK")
}
