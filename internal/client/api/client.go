// Package api is the HTTP client for the bankapi server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/shopspring/decimal"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRejected     = errors.New("request rejected")
	ErrRateLimited  = errors.New("too many requests")
	ErrNoBalance    = errors.New("no balance available")
	ErrNotSignedIn  = errors.New("not signed in")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client keeps the bearer token of the current session.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type transferRequest struct {
	RecipientLogin string          `json:"recipientLogin"`
	Amount         decimal.Decimal `json:"amount"`
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(t string) {
	c.mu.Lock()
	c.token = t
	c.mu.Unlock()
}

func (c *Client) SignUp(ctx context.Context, login, password string) error {
	code, body, err := c.do(ctx, http.MethodPost, "/signup", credentials{login, password}, false)
	if err != nil {
		return err
	}
	switch code {
	case http.StatusCreated:
		return nil
	case http.StatusBadRequest:
		return ErrRejected
	default:
		return &StatusError{Code: code, Body: body}
	}
}

// SignIn stores the returned token for later calls.
func (c *Client) SignIn(ctx context.Context, login, password string) error {
	code, body, err := c.do(ctx, http.MethodPost, "/signin", credentials{login, password}, false)
	if err != nil {
		return err
	}
	switch code {
	case http.StatusOK:
		c.setToken(strings.TrimSpace(body))
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &StatusError{Code: code, Body: body}
	}
}

// SignOut revokes the current token on the server and forgets it locally.
func (c *Client) SignOut(ctx context.Context) error {
	code, body, err := c.do(ctx, http.MethodPost, "/signout", nil, true)
	if err != nil {
		return err
	}
	c.setToken("")
	switch code {
	case http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return &StatusError{Code: code, Body: body}
	}
}

func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	code, body, err := c.do(ctx, http.MethodGet, "/money", nil, true)
	if err != nil {
		return decimal.Zero, err
	}
	switch code {
	case http.StatusOK:
		var b decimal.Decimal
		if err := json.Unmarshal([]byte(body), &b); err != nil {
			return decimal.Zero, fmt.Errorf("decode balance: %w", err)
		}
		return b, nil
	case http.StatusNoContent:
		return decimal.Zero, ErrNoBalance
	case http.StatusUnauthorized:
		return decimal.Zero, ErrUnauthorized
	default:
		return decimal.Zero, &StatusError{Code: code, Body: body}
	}
}

func (c *Client) Transfer(ctx context.Context, recipient string, amount decimal.Decimal) error {
	code, body, err := c.do(ctx, http.MethodPost, "/money", transferRequest{recipient, amount}, true)
	if err != nil {
		return err
	}
	switch code {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		return ErrRejected
	case http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		return &StatusError{Code: code, Body: body}
	}
}

func (c *Client) Ping(ctx context.Context) error {
	code, body, err := c.do(ctx, http.MethodGet, "/ping", nil, false)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return &StatusError{Code: code, Body: body}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, authed bool) (int, string, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, "", fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.Token()
		if token == "" {
			return 0, "", ErrNotSignedIn
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(body), nil
}
