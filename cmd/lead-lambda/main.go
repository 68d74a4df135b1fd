package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/wolfman30/visitplus-leads/cmd/mainconfig"
	"github.com/wolfman30/visitplus-leads/internal/app/bootstrap"
	appconfig "github.com/wolfman30/visitplus-leads/internal/config"
	"github.com/wolfman30/visitplus-leads/internal/intake"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	loader := func(ctx context.Context) (aws.Config, error) {
		return mainconfig.LoadAWSConfig(ctx, cfg)
	}
	app, err := bootstrap.Build(context.Background(), cfg, loader, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		panic(err)
	}

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, app.Handler, evt), nil
	})
}

// handle replays an API Gateway HTTP API event through the same router the
// standalone server uses.
func handle(ctx context.Context, h http.Handler, evt events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	rw := newResponseWriter()
	req, err := toRequest(ctx, evt)
	if err != nil {
		// The event never reached the router, so answer like the intake
		// endpoint does for a transport failure.
		intake.SetCORS(rw)
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(rw).Encode(intake.ErrorResponse{Error: intake.MsgFailed})
		return rw.response()
	}
	h.ServeHTTP(rw, req)
	return rw.response()
}

func toRequest(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	body, err := decodeBody(evt)
	if err != nil {
		return nil, err
	}
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	if path == "" {
		path = "/"
	}
	target := path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		target += "?" + qs
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range evt.Headers {
		req.Header.Set(k, v)
	}
	if len(evt.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(evt.Cookies, "; "))
	}
	if host := strings.TrimSpace(evt.RequestContext.DomainName); host != "" {
		req.Host = host
	}
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		req.RemoteAddr = ip + ":0"
		if req.Header.Get("X-Forwarded-For") == "" {
			req.Header.Set("X-Forwarded-For", ip)
		}
	}
	if ua := strings.TrimSpace(evt.RequestContext.HTTP.UserAgent); ua != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", ua)
	}
	req.ContentLength = int64(len(body))
	return req, nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

type responseWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: http.Header{}}
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.body.Write(p)
}

func (w *responseWriter) response() events.APIGatewayV2HTTPResponse {
	status := w.status
	if status == 0 {
		status = http.StatusOK
	}
	headers := make(map[string]string, len(w.header))
	for k, v := range w.header {
		headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       w.body.String(),
	}
}
