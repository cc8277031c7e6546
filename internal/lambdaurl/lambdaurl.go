// Package lambdaurl serves an http.Handler from Lambda Function URL events.
package lambdaurl

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dmorgan81/capyattitude/internal/log"
	"github.com/samber/lo"
)

type Adapter struct {
	Handler http.Handler
}

func (a *Adapter) Handle(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("lambdaurl").With("request_id", event.RequestContext.RequestID)

	req, err := toRequest(ctx, event)
	if err != nil {
		log.Error("building request", "error", err)
		return events.LambdaFunctionURLResponse{StatusCode: http.StatusBadRequest, Body: err.Error()}, nil
	}

	w := newResponseWriter()
	a.Handler.ServeHTTP(w, req)
	return w.toResponse(), nil
}

func toRequest(ctx context.Context, event events.LambdaFunctionURLRequest) (*http.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		body = decoded
	}

	path := lo.Ternary(event.RawPath != "", event.RawPath, "/")
	target := path
	if event.RawQueryString != "" {
		target += "?" + event.RawQueryString
	}
	method := lo.Ternary(event.RequestContext.HTTP.Method != "", event.RequestContext.HTTP.Method, http.MethodGet)

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range event.Headers {
		req.Header.Set(k, v)
	}
	if len(event.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(event.Cookies, "; "))
	}
	req.Host = lo.Ternary(req.Header.Get("Host") != "", req.Header.Get("Host"), event.RequestContext.DomainName)
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP
	if req.Header.Get("X-Forwarded-Proto") == "" {
		req.Header.Set("X-Forwarded-Proto", "https")
	}
	return req, nil
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

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	return w.body.Write(b)
}

func (w *responseWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
}

func (w *responseWriter) toResponse() events.LambdaFunctionURLResponse {
	status := lo.Ternary(w.status != 0, w.status, http.StatusOK)

	headers := make(map[string]string, len(w.header))
	for k, v := range w.header {
		if k == "Set-Cookie" {
			continue
		}
		headers[k] = strings.Join(v, ", ")
	}
	if _, ok := headers["Content-Type"]; !ok && w.body.Len() > 0 {
		headers["Content-Type"] = http.DetectContentType(w.body.Bytes())
	}

	resp := events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    headers,
		Cookies:    w.header.Values("Set-Cookie"),
	}
	if isText(headers["Content-Type"]) {
		resp.Body = w.body.String()
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(w.body.Bytes())
		resp.IsBase64Encoded = true
	}
	return resp
}

func isText(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" ||
		strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "json") ||
		strings.Contains(ct, "xml") ||
		strings.Contains(ct, "javascript")
}
