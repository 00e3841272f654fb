package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"warranty-copilot/internal/bootstrap"
	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/shared/telemetry"
)

type proxyHandler func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// newHandler builds the router on the first invocation and reuses it while
// the execution environment stays warm. A failed build is reported on every
// invocation.
func newHandler(build func(ctx context.Context) (*gin.Engine, error)) proxyHandler {
	var (
		once    sync.Once
		adapter *ginadapter.GinLambdaV2
		initErr error
	)
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		once.Do(func() {
			router, err := build(ctx)
			if err != nil {
				initErr = err
				return
			}
			adapter = ginadapter.NewV2(router)
			telemetry.Info("lambda.cold_start", nil)
		})
		if initErr != nil {
			telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": initErr})
			return jsonError(`{"error":"bootstrap failed"}`), initErr
		}
		defer telemetry.Sync()
		return adapter.ProxyWithContext(ctx, req)
	}
}

func jsonError(body string) events.APIGatewayV2HTTPResponse {
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func buildRouter(ctx context.Context) (*gin.Engine, error) {
	app, err := bootstrap.Build(context.WithoutCancel(ctx), config.Load())
	if err != nil {
		return nil, err
	}
	return app.Router, nil
}

func main() {
	lambda.Start(newHandler(buildRouter))
}
