package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lifanwar/warung22/internal/model"
	"github.com/rs/zerolog"
)

const (
	DefaultAskTimeout     = 50 * time.Second
	DefaultRefreshTimeout = 10 * time.Second

	apiKeyHeader = "X-API-Key"
)

// BackendClient talks to the menu question-answering API.
type BackendClient struct {
	BaseURL        string
	APIKey         string
	AskTimeout     time.Duration
	RefreshTimeout time.Duration

	httpClient *http.Client
	log        zerolog.Logger
}

func NewBackendClient(baseURL, apiKey string, log zerolog.Logger) *BackendClient {
	return &BackendClient{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		APIKey:         apiKey,
		AskTimeout:     DefaultAskTimeout,
		RefreshTimeout: DefaultRefreshTimeout,
		httpClient:     &http.Client{},
		log:            log.With().Str("component", "backend").Logger(),
	}
}

// Ask sends a customer question to POST /ask. Any failure, including an
// empty answer, is logged and reported as ok == false.
func (c *BackendClient) Ask(ctx context.Context, question string) (string, bool) {
	var res model.AskResponse
	err := c.do(ctx, http.MethodPost, "/ask", c.AskTimeout, model.AskRequest{Question: question}, &res)
	if err != nil {
		c.log.Error().Err(err).Msg("❌ API Error")
		return "", false
	}
	if strings.TrimSpace(res.Answer) == "" {
		c.log.Warn().Str("question", question).Msg("API returned an empty answer")
		return "", false
	}
	return res.Answer, true
}

// RefreshCache asks the backend to reload its menu cache (POST /refresh).
func (c *BackendClient) RefreshCache(ctx context.Context) (*model.RefreshResult, bool) {
	var res model.RefreshResult
	if err := c.do(ctx, http.MethodPost, "/refresh", c.RefreshTimeout, struct{}{}, &res); err != nil {
		c.log.Error().Err(err).Msg("❌ Refresh Error")
		return nil, false
	}
	return &res, true
}

// Health calls GET /. Unlike Ask and RefreshCache the error is returned,
// this is operator tooling.
func (c *BackendClient) Health(ctx context.Context) (*model.HealthStatus, error) {
	var res model.HealthStatus
	if err := c.do(ctx, http.MethodGet, "/", c.RefreshTimeout, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CacheStats calls GET /cache/stats.
func (c *BackendClient) CacheStats(ctx context.Context) (*model.CacheStats, error) {
	var res model.CacheStats
	if err := c.do(ctx, http.MethodGet, "/cache/stats", c.RefreshTimeout, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, timeout time.Duration, payload, out interface{}) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s payload: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request %s: %w", path, err)
	}
	req.Header.Set(apiKeyHeader, c.APIKey)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
