package monitor

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/shared/server/middleware"
	"warranty-copilot/internal/shared/server/respond"
	"warranty-copilot/internal/shared/telemetry"
	"warranty-copilot/internal/topics"
)

// Handler serves /set_copilot_postman_monitor_flag.
type Handler struct {
	Store FlagStore
}

// NewHandler constructs a Handler.
func NewHandler(store FlagStore) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches the monitor flag route.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/set_copilot_postman_monitor_flag", h.setFlag)
	r.POST("/set_copilot_postman_monitor_flag", h.setFlag)
	r.OPTIONS("/set_copilot_postman_monitor_flag", middleware.Preflight)
}

// parseFlag accepts an integer; any non-zero value means flagged. An absent
// value clears the flag.
func parseFlag(raw string, present bool) (bool, error) {
	if !present {
		return false, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (h *Handler) setFlag(c *gin.Context) {
	topic := strings.TrimSpace(c.Query("topic"))
	env := strings.TrimSpace(c.Query("env"))
	if topic == "" || env == "" {
		respond.JSON(c, http.StatusNotFound, gin.H{"error": ErrTopicRequired.Error(), "response": http.StatusNotFound})
		return
	}
	c.Set(middleware.CopilotKey, topic)

	raw, present := c.GetQuery("error_flagged")
	flagged, err := parseFlag(raw, present)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "error_flagged must be 0 or 1", []map[string]string{
			{"field": "error_flagged", "issue": raw},
		})
		return
	}

	canonical, err := topics.Canonical(topic)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "topic not found", []map[string]string{
			{"field": "topic", "issue": topic},
		})
		return
	}

	buildEnv := config.ParseBuildEnv(env)
	if err := h.Store.SetFlag(c.Request.Context(), buildEnv, canonical, flagged); err != nil {
		telemetry.Error("monitor.flag_failed", map[string]any{"topic": canonical, "error": err})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update flag", nil)
		return
	}

	telemetry.Info("monitor.flag_updated", map[string]any{
		"topic":   canonical,
		"env":     string(buildEnv),
		"flagged": flagged,
	})
	respond.OK(c, gin.H{
		"status":   http.StatusOK,
		"response": fmt.Sprintf("%s Flag updated to: %s", topic, flagText(flagged)),
	})
}

// flagText renders a flag as the monitor collection expects it.
func flagText(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
