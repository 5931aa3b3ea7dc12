// Package functions calls the backend's serverless functions (checkout,
// OTP, account deletion, push broadcast) over HTTPS.
//
// None of these calls is part of the sync engine's correctness. Callers
// decide whether a failure is shown to the user or only logged.
package functions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/logging"
	"github.com/go-resty/resty/v2"
)

const (
	FnCheckout      = "create-checkout-session"
	FnDeleteAccount = "delete-account"
	FnCreateOTP     = "create-otp"
	FnVerifyOTP     = "verify-otp"
	FnBroadcastPush = "broadcast-push"
)

// Error is a non-2xx answer from a function.
type Error struct {
	Function string
	Status   int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %d %s", e.Function, e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusForbidden:
		return common.ErrorForbidden
	case http.StatusBadRequest:
		return common.ErrorValidation
	case http.StatusTooManyRequests:
		return common.ErrRateLimited
	default:
		return nil
	}
}

type errorBody struct {
	Error string `json:"error"`
}

type Client struct {
	resty  *resty.Client
	logger logging.Logger

	mu    sync.RWMutex
	token string
}

// NewClient builds a client for the functions endpoint at baseURL, e.g.
// https://<project>.supabase.co/functions/v1.
func NewClient(baseURL, apiKey string, timeout time.Duration, l logging.Logger) *Client {
	r := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "atlist-cli/1.0")
	if apiKey != "" {
		r.SetHeader("apikey", apiKey)
	}
	return &Client{resty: r, logger: l.With("module", "functions")}
}

func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) call(ctx context.Context, fn string, body any, result any) error {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	req := c.resty.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&errorBody{})
	if token != "" {
		req.SetAuthToken(token)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post("/" + fn)
	if err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}
	if resp.IsSuccess() {
		c.logger.Debug(ctx, "function ok", "fn", fn, "status", resp.StatusCode())
		return nil
	}

	msg := strings.TrimSpace(resp.String())
	if eb, ok := resp.Error().(*errorBody); ok && eb.Error != "" {
		msg = eb.Error
	}
	return &Error{Function: fn, Status: resp.StatusCode(), Message: msg}
}

// CreateCheckoutSession starts a membership checkout and returns the URL
// to open. promoCode may be empty.
func (c *Client) CreateCheckoutSession(ctx context.Context, email, promoCode string) (string, error) {
	body := map[string]any{"email": email}
	if promoCode != "" {
		body["promoCode"] = promoCode
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := c.call(ctx, FnCheckout, body, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", errors.New("checkout: empty session url")
	}
	return out.URL, nil
}

// DeleteAccount deletes the signed-in account and all of its rows.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.call(ctx, FnDeleteAccount, map[string]any{}, nil)
}

func (c *Client) CreateOTP(ctx context.Context, email, userID string) error {
	return c.call(ctx, FnCreateOTP, map[string]any{"email": email, "user_id": userID}, nil)
}

func (c *Client) VerifyOTP(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return fmt.Errorf("%w: email and code required", common.ErrorValidation)
	}
	return c.call(ctx, FnVerifyOTP, map[string]any{"email": email, "code": code}, nil)
}

// BroadcastPush sends a push message to every user, or only to members.
// Admin only.
func (c *Client) BroadcastPush(ctx context.Context, message string, membersOnly bool) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message required", common.ErrorValidation)
	}
	return c.call(ctx, FnBroadcastPush, map[string]any{"message": message, "membersOnly": membersOnly}, nil)
}
