package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/common"
	"github.com/yudo-scheduler/yudo/internal/logging"
)

const maxResponseSize = 1 << 20

const (
	pathLogin          = "/api/v1/user/login"
	pathSendOTP        = "/api/v1/user/sendotp"
	pathVerifyOTP      = "/api/v1/user/verifyotp"
	pathReset          = "/api/v1/user/reset"
	pathSendQuickLogin = "/api/v1/user/sendQuickLogin"
	pathQuickLogin     = "/api/v1/user/quicklogin"
	pathNotifications  = "/api/v1/notifications"
)

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	baseURL   *url.URL
	http      *http.Client
	log       logging.Logger
	requestID func() string
}

// NewHTTPClient builds a client for the API rooted at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api url %q: missing host", baseURL)
	}

	return &HTTPClient{
		baseURL:   u,
		http:      &http.Client{Timeout: timeout},
		log:       log.With("component", "api"),
		requestID: uuid.NewString,
	}, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.Session, error) {
	body, err := c.do(ctx, http.MethodPost, pathLogin, nil, credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return decodeSession(body)
}

// SendOTP asks the API to e-mail a code. Whatever the response carries besides
// an error is ignored; the client never holds the expected code.
func (c *HTTPClient) SendOTP(ctx context.Context, email, password string) error {
	_, err := c.do(ctx, http.MethodPost, pathSendOTP, nil, credentials{Email: email, Password: password})
	return err
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, otp, password string) (*models.Session, error) {
	req := struct {
		Email    string `json:"email"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}{Email: email, OTP: otp, Password: password}

	body, err := c.do(ctx, http.MethodPost, pathVerifyOTP, nil, req)
	if err != nil {
		return nil, err
	}
	return decodeSession(body)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, resetID, password string) error {
	q := url.Values{"resetId": {resetID}}
	req := struct {
		Password string `json:"password"`
	}{Password: password}

	_, err := c.do(ctx, http.MethodPost, pathReset, q, req)
	return err
}

func (c *HTTPClient) SendQuickLogin(ctx context.Context, email string) error {
	req := struct {
		Email string `json:"email"`
	}{Email: email}

	_, err := c.do(ctx, http.MethodPost, pathSendQuickLogin, nil, req)
	return err
}

func (c *HTTPClient) QuickLogin(ctx context.Context, token string) (*models.Session, error) {
	body, err := c.do(ctx, http.MethodGet, pathQuickLogin, url.Values{"token": {token}}, nil)
	if err != nil {
		return nil, err
	}
	return decodeSession(body)
}

func (c *HTTPClient) Notifications(ctx context.Context, q NotificationQuery) (*models.NotificationPage, error) {
	values := url.Values{}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Type != "" {
		values.Set("type", string(q.Type))
	}

	body, err := c.do(ctx, http.MethodGet, pathNotifications, values, nil)
	if err != nil {
		return nil, err
	}

	var page models.NotificationPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: decode notifications: %w", ErrUnavailable, err)
	}
	if !page.Success {
		return nil, &ServerError{Status: http.StatusOK}
	}
	return &page, nil
}

// Ping reports whether the API origin answers at all. Any HTTP response,
// whatever its status, counts as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	_ = resp.Body.Close()
	return nil
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reqBody)
	if err != nil {
		return nil, err
	}
	requestID := c.requestID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.With("method", method, "path", path, "request_id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug(ctx, "request failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	log.Debug(ctx, "response received", "status", resp.StatusCode)

	msg, hasError := errorMessage(body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 || hasError {
		return nil, &ServerError{Status: resp.StatusCode, Message: msg}
	}
	return body, nil
}

// errorMessage extracts a server-reported failure. The API uses an "error"
// field, sometimes a plain string and sometimes an object with a message. The
// bool reports whether an error field was present; the returned text falls
// back to a top-level "message" either way.
func errorMessage(body []byte) (string, bool) {
	var env struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &env) != nil {
		return "", false
	}

	raw := bytes.TrimSpace(env.Error)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "false" {
		return env.Message, false
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s, true
		}
		return env.Message, true
	}

	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil && obj.Message != "" {
		return obj.Message, true
	}
	return env.Message, true
}

func decodeSession(body []byte) (*models.Session, error) {
	s, err := models.ParseSession(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return s, nil
}
