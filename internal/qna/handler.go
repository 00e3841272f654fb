package qna

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"warranty-copilot/internal/shared/server/middleware"
	"warranty-copilot/internal/shared/server/respond"
	"warranty-copilot/internal/shared/telemetry"
	"warranty-copilot/internal/topics"
)

// Resources lists the accepted /clarify_issue resource values.
var Resources = []string{"CLARIFY_ISSUE", "COLD_START", "REDIRECT_ISSUE", "EXTRACT_ISSUE", "WARRANTY_STREAM", "ALTERNATIVE_TOPICS"}

// ParseResource maps a resource query value to a purpose. An empty value
// means cold start. WARRANTY_STREAM and ALTERNATIVE_TOPICS are accepted and
// acknowledged.
func ParseResource(raw string) (Purpose, error) {
	switch strings.TrimSpace(raw) {
	case "", "COLD_START":
		return PurposeColdStart, nil
	case "CLARIFY_ISSUE":
		return PurposeClarify, nil
	case "REDIRECT_ISSUE":
		return PurposeRedirect, nil
	case "EXTRACT_ISSUE":
		return PurposeExtract, nil
	case "WARRANTY_STREAM", "ALTERNATIVE_TOPICS":
		return PurposeAcknowledge, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidResource, raw)
	}
}

// Handler exposes the QnA flows over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the QnA routes.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/dynamic_qna", h.dynamicQnA)
	r.POST("/dynamic_qna", h.dynamicQnA)
	r.OPTIONS("/dynamic_qna", middleware.Preflight)

	r.GET("/clarify_issue", h.clarifyIssue)
	r.POST("/clarify_issue", h.clarifyIssue)
	r.OPTIONS("/clarify_issue", middleware.Preflight)
}

func (h *Handler) dynamicQnA(c *gin.Context) {
	h.serve(c, PurposeClarify)
}

func (h *Handler) clarifyIssue(c *gin.Context) {
	purpose, err := ParseResource(c.Query("resource"))
	if err != nil {
		telemetry.Warn("qna.invalid_resource", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"resource":   c.Query("resource"),
		})
		respond.JSON(c, http.StatusInternalServerError, gin.H{
			"response": fmt.Sprintf("Query sent using invalid 'resource' value. Expected: [%s]", strings.Join(Resources, ", ")),
		})
		return
	}
	h.serve(c, purpose)
}

func (h *Handler) serve(c *gin.Context, purpose Purpose) {
	req, err := bindRequest(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", []map[string]string{
			{"field": "body", "issue": err.Error()},
		})
		return
	}
	c.Set(middleware.CopilotKey, req.TopicName())
	c.Set(middleware.SubtopicKey, req.Subtopic)
	c.Set(middleware.PurposeKey, string(purpose))

	out, err := h.Svc.Handle(c.Request.Context(), purpose, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingTopic):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Request body missing topic or subtopic.", []map[string]string{
				{"field": "copilot", "issue": "required"},
				{"field": "subtopic", "issue": "required"},
			})
		case errors.Is(err, topics.ErrUnknownTopic), errors.Is(err, topics.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "topic not found", []map[string]string{
				{"field": "copilot", "issue": req.TopicName()},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load topic", nil)
		}
		return
	}

	c.Set(middleware.PurposeKey, string(out.Purpose))
	if body := out.Body(); body != nil {
		respond.OK(c, body)
		return
	}
	respond.Acknowledge(c)
}

// bindRequest reads query parameters, then overlays the JSON body when one
// was sent.
func bindRequest(c *gin.Context) (Request, error) {
	var req Request
	if err := c.ShouldBindQuery(&req); err != nil {
		return Request{}, err
	}
	if c.Request.Body == nil {
		return req, nil
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return Request{}, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}
