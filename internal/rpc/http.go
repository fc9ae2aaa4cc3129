package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-erpdocs/httpx"
	"github.com/google/uuid"
)

// HTTPCaller posts requests as JSON to a backend's /rpc endpoint.
type HTTPCaller struct {
	BaseURL string
	Client  *http.Client
}

func NewHTTPCaller(baseURL string, timeout time.Duration) *HTTPCaller {
	return &HTTPCaller{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPCaller) Call(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/rpc", bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("X-Request-ID", req.ID)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(hr)
	if err != nil {
		return Response{}, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode >= 400 {
		var er httpx.ErrorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			return Response{Message: errorMessage(er)}, nil
		}
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, fmt.Errorf("status %d: undecodable response: %w", res.StatusCode, err)
	}
	if res.StatusCode >= 400 && out.Success {
		return Response{}, fmt.Errorf("status %d", res.StatusCode)
	}
	return out, nil
}

// errorMessage flattens the envelope the server writes when it rejects a
// request before dispatching it.
func errorMessage(er httpx.ErrorResponse) string {
	if er.Details == nil {
		return er.Error
	}
	return fmt.Sprintf("%s: %v", er.Error, er.Details)
}
