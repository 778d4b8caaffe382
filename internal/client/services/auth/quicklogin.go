package auth

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/common"
	"github.com/yudo-scheduler/yudo/internal/logging"
)

// RedirectDelay is how long the success state is shown before the quick
// login page moves on to the dashboard.
const RedirectDelay = 2 * time.Second

const missingToken = "Invalid or missing login token."

type QuickLoginStatus string

const (
	QuickLoginIdle    QuickLoginStatus = "idle"
	QuickLoginLoading QuickLoginStatus = "loading"
	QuickLoginSuccess QuickLoginStatus = "success"
	QuickLoginError   QuickLoginStatus = "error"
)

// QuickLogin exchanges a one-time link token for a session. The exchange is
// attempted at most once per instance.
type QuickLogin struct {
	deps  Deps
	log   logging.Logger
	token string

	once    sync.Once
	mu      sync.Mutex
	status  QuickLoginStatus
	message string
	session *models.Session
	err     error
}

func NewQuickLogin(query url.Values, deps Deps) *QuickLogin {
	deps.defaults()
	return &QuickLogin{
		deps:   deps,
		log:    deps.Log.With("component", "quicklogin"),
		token:  strings.TrimSpace(query.Get("token")),
		status: QuickLoginIdle,
	}
}

// Run performs the exchange. Later calls return the outcome of the first
// one without issuing another request. On success the session is stored and,
// after RedirectDelay, the dashboard is opened unless ctx ends first.
func (q *QuickLogin) Run(ctx context.Context) error {
	q.once.Do(func() { q.err = q.run(ctx) })
	return q.err
}

func (q *QuickLogin) run(ctx context.Context) error {
	if q.token == "" {
		q.set(QuickLoginError, missingToken, nil)
		return &Failure{Message: missingToken, Err: common.ErrMissingToken}
	}

	q.set(QuickLoginLoading, "", nil)
	s, err := q.deps.API.QuickLogin(ctx, q.token)
	if err != nil {
		f := failure(err, quickLoginFailed)
		q.log.Info(ctx, "quick login failed", "error", err)
		q.set(QuickLoginError, f.Error(), nil)
		return f
	}
	if err := q.deps.Sessions.Set(ctx, s); err != nil {
		q.set(QuickLoginError, quickLoginFailed, nil)
		return err
	}

	q.set(QuickLoginSuccess, "Login successful! Redirecting to dashboard...", s)
	q.log.Info(ctx, "quick login succeeded", "user", s.User.ID)

	if err := q.deps.Sleep(ctx, RedirectDelay); err != nil {
		return nil
	}
	q.deps.Navigator.Navigate(common.DashboardPath)
	return nil
}

func (q *QuickLogin) set(st QuickLoginStatus, msg string, s *models.Session) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.status = st
	q.message = msg
	if s != nil {
		q.session = s
	}
}

func (q *QuickLogin) Status() QuickLoginStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

// Message is the text shown for the current status.
func (q *QuickLogin) Message() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.message
}

// Session is the session obtained by a successful exchange, or nil.
func (q *QuickLogin) Session() *models.Session {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.session
}
