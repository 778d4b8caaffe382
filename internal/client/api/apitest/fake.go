// Package apitest provides a scriptable api.Client for tests.
package apitest

import (
	"context"
	"sync"

	"github.com/yudo-scheduler/yudo/internal/client/api"
	"github.com/yudo-scheduler/yudo/internal/client/models"
)

// Call records one request made through the fake.
type Call struct {
	Method string
	Args   []string
	Query  api.NotificationQuery
}

// Client is an api.Client whose behaviour is set per method. Unset methods
// succeed with zero values.
type Client struct {
	LoginFn          func(ctx context.Context, email, password string) (*models.Session, error)
	SendOTPFn        func(ctx context.Context, email, password string) error
	VerifyOTPFn      func(ctx context.Context, email, otp, password string) (*models.Session, error)
	ResetPasswordFn  func(ctx context.Context, resetID, password string) error
	SendQuickLoginFn func(ctx context.Context, email string) error
	QuickLoginFn     func(ctx context.Context, token string) (*models.Session, error)
	NotificationsFn  func(ctx context.Context, q api.NotificationQuery) (*models.NotificationPage, error)
	PingFn           func(ctx context.Context) error

	mu    sync.Mutex
	calls []Call
}

var _ api.Client = (*Client)(nil)

func (c *Client) record(call Call) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

// Calls returns the requests made so far.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Count returns how many requests of the given method were made.
func (c *Client) Count(method string) int {
	n := 0
	for _, call := range c.Calls() {
		if call.Method == method {
			n++
		}
	}
	return n
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.Session, error) {
	c.record(Call{Method: "Login", Args: []string{email, password}})
	if c.LoginFn == nil {
		return &models.Session{}, nil
	}
	return c.LoginFn(ctx, email, password)
}

func (c *Client) SendOTP(ctx context.Context, email, password string) error {
	c.record(Call{Method: "SendOTP", Args: []string{email, password}})
	if c.SendOTPFn == nil {
		return nil
	}
	return c.SendOTPFn(ctx, email, password)
}

func (c *Client) VerifyOTP(ctx context.Context, email, otp, password string) (*models.Session, error) {
	c.record(Call{Method: "VerifyOTP", Args: []string{email, otp, password}})
	if c.VerifyOTPFn == nil {
		return &models.Session{}, nil
	}
	return c.VerifyOTPFn(ctx, email, otp, password)
}

func (c *Client) ResetPassword(ctx context.Context, resetID, password string) error {
	c.record(Call{Method: "ResetPassword", Args: []string{resetID, password}})
	if c.ResetPasswordFn == nil {
		return nil
	}
	return c.ResetPasswordFn(ctx, resetID, password)
}

func (c *Client) SendQuickLogin(ctx context.Context, email string) error {
	c.record(Call{Method: "SendQuickLogin", Args: []string{email}})
	if c.SendQuickLoginFn == nil {
		return nil
	}
	return c.SendQuickLoginFn(ctx, email)
}

func (c *Client) QuickLogin(ctx context.Context, token string) (*models.Session, error) {
	c.record(Call{Method: "QuickLogin", Args: []string{token}})
	if c.QuickLoginFn == nil {
		return &models.Session{}, nil
	}
	return c.QuickLoginFn(ctx, token)
}

func (c *Client) Notifications(ctx context.Context, q api.NotificationQuery) (*models.NotificationPage, error) {
	c.record(Call{Method: "Notifications", Query: q})
	if c.NotificationsFn == nil {
		return &models.NotificationPage{Success: true}, nil
	}
	return c.NotificationsFn(ctx, q)
}

func (c *Client) Ping(ctx context.Context) error {
	c.record(Call{Method: "Ping"})
	if c.PingFn == nil {
		return nil
	}
	return c.PingFn(ctx)
}
