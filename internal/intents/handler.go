package intents

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"warranty-copilot/internal/shared/server/middleware"
	"warranty-copilot/internal/shared/server/respond"
	"warranty-copilot/internal/shared/telemetry"
)

// Source yields the current catalog.
type Source interface {
	Load(ctx context.Context) (Catalog, error)
}

// Handler serves /get_topic_intents.
type Handler struct {
	Catalog Source
}

// NewHandler constructs a Handler.
func NewHandler(src Source) *Handler {
	return &Handler{Catalog: src}
}

// RegisterRoutes attaches the intents route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/get_topic_intents", h.rank)
	r.POST("/get_topic_intents", h.rank)
	r.OPTIONS("/get_topic_intents", middleware.Preflight)
}

func (h *Handler) rank(c *gin.Context) {
	q := Query{
		Copilot:  c.DefaultQuery("copilot", DefaultCopilot),
		Subtopic: c.Query("subtopic"),
		Limit:    DefaultLimit,
	}
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be an integer", nil)
			return
		}
		q.Limit = parsed
	}
	c.Set(middleware.CopilotKey, q.Copilot)
	c.Set(middleware.SubtopicKey, q.Subtopic)

	var scores []Score
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request body must be a list of scores", nil)
		return
	}
	if err := json.Unmarshal(raw, &scores); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request body must be a list of scores", []map[string]string{
			{"field": "body", "issue": err.Error()},
		})
		return
	}

	catalog, err := h.Catalog.Load(c.Request.Context())
	if err != nil {
		telemetry.Error("intents.load_failed", map[string]any{"error": err})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load intents", nil)
		return
	}

	options, err := catalog.Rank(scores, q)
	if err != nil {
		if errors.Is(err, ErrUnknownCopilot) {
			respond.Error(c, http.StatusNotFound, "not_found", "copilot not found", []map[string]string{
				{"field": "copilot", "issue": q.Copilot},
			})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to rank intents", nil)
		return
	}
	respond.OK(c, options)
}
