package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iudanet/notifsync/pkg/api"
)

// maxErrorBody bounds how much of an error response is kept in messages
const maxErrorBody = 512

//go:generate moq -out tokensource_mock.go . TokenSource

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client представляет HTTP клиент для взаимодействия с лентой уведомлений
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger
	baseURL    string
}

// Option customizes a Client.
type Option func(*Client)

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  zap.NewNop(),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListNotifications получает одну страницу ленты, начиная с cursor
func (c *Client) ListNotifications(ctx context.Context, limit int, cursor string) (*api.ListNotificationsResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	path := api.NotificationsPath
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp api.ListNotificationsResponse
	if err := c.doRequest(ctx, http.MethodGet, path, true, &resp); err != nil {
		return nil, fmt.Errorf("list notifications failed: %w", err)
	}
	return &resp, nil
}

// Health проверяет доступность сервера
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, api.HealthPath, false, &resp); err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос и приводит ошибки к RemoteError
func (c *Client) doRequest(ctx context.Context, method, path string, authenticated bool, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if authenticated && c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Отмена вызывающим не считается сбоем сети
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &RemoteError{Kind: KindTransient, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Kind: KindTransient, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug("Remote call finished",
		zap.String("method", method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp, respBody)
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &RemoteError{Kind: KindGeneric, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	return nil
}

func newStatusError(resp *http.Response, body []byte) *RemoteError {
	rerr := &RemoteError{
		Kind:       ClassifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
	}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Error != "" || errResp.Message != "") {
		rerr.Message = strings.TrimSpace(errResp.Error + " " + errResp.Message)
	} else {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		rerr.Message = msg
	}

	if rerr.Kind == KindRateLimited {
		rerr.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	}

	return rerr
}

// AsRemoteError extracts a RemoteError from err.
func AsRemoteError(err error) (*RemoteError, bool) {
	var rerr *RemoteError
	if errors.As(err, &rerr) {
		return rerr, true
	}
	return nil, false
}
