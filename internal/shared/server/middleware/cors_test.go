package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSOptionsPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS())
	reached := false
	router.POST("/dynamic_qna", func(c *gin.Context) {
		reached = true
	})

	req := httptest.NewRequest(http.MethodOptions, "/dynamic_qna", nil)
	req.Header.Set("Origin", "https://copilot.example.com")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if reached {
		t.Fatalf("preflight must not reach the handler")
	}
	if got := resp.Body.String(); got != "OK" {
		t.Fatalf("expected body OK, got %q", got)
	}
	assertCORSHeaders(t, resp)
}

func TestCORSHeadersOnPost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS())
	router.POST("/dynamic_qna", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"response": "OK"})
	})

	req := httptest.NewRequest(http.MethodPost, "/dynamic_qna", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected Allow-Origin *, got %q", got)
	}
}

func TestPreflightRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.OPTIONS("/clarify_issue", Preflight)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodOptions, "/clarify_issue", nil))

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	assertCORSHeaders(t, resp)
}

func TestPreflightOverListener(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS())
	router.POST("/dynamic_qna", func(c *gin.Context) {})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/dynamic_qna", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "https://copilot.example.com")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("options request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(body) != 0 {
		t.Fatalf("expected empty body on 204, got %q", body)
	}
	assertCORSHeaderValues(t, resp.Header)
}

func assertCORSHeaders(t *testing.T, resp *httptest.ResponseRecorder) {
	t.Helper()
	assertCORSHeaderValues(t, resp.Header())
}

func assertCORSHeaderValues(t *testing.T, h http.Header) {
	t.Helper()
	if got := h.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected Allow-Origin *, got %q", got)
	}
	if got := h.Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Fatalf("unexpected Allow-Methods %q", got)
	}
	if got := h.Get("Access-Control-Allow-Headers"); got == "" {
		t.Fatalf("expected Allow-Headers header")
	}
	if got := h.Get("Access-Control-Max-Age"); got != "3600" {
		t.Fatalf("expected Max-Age 3600, got %q", got)
	}
}
