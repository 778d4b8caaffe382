package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yudo-scheduler/yudo/internal/client/api"
	"github.com/yudo-scheduler/yudo/internal/client/api/apitest"
	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/client/services"
	"github.com/yudo-scheduler/yudo/internal/client/session/sessiontest"
	"github.com/yudo-scheduler/yudo/internal/client/validate"
	"github.com/yudo-scheduler/yudo/internal/common"
	"github.com/yudo-scheduler/yudo/internal/timex/timextest"
)

type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) Navigate(path string) {
	n.mu.Lock()
	n.paths = append(n.paths, path)
	n.mu.Unlock()
}

func (n *recordingNav) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}

type fixture struct {
	api      *apitest.Client
	sessions *sessiontest.Memory
	nav      *recordingNav
	clock    *timextest.Clock
	tickers  *timextest.Factory
}

func newFixture() *fixture {
	return &fixture{
		api:      &apitest.Client{},
		sessions: &sessiontest.Memory{},
		nav:      &recordingNav{},
		clock:    timextest.NewClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)),
		tickers:  timextest.NewFactory(),
	}
}

func (f *fixture) deps() Deps {
	return Deps{
		API:       f.api,
		Sessions:  f.sessions,
		Navigator: f.nav,
		Clock:     f.clock.Now,
		NewTicker: f.tickers.New,
	}
}

func (f *fixture) page(query string) *Page {
	q, _ := url.ParseQuery(query)
	return NewPage(q, f.deps())
}

func userSession(t *testing.T) *models.Session {
	t.Helper()
	s, err := models.ParseSession([]byte(`{"user":{"_id":"u1","email":"ana@yudo.app","name":"Ana"},"token":"t"}`))
	require.NoError(t, err)
	return s
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var ve *validate.Error
	require.ErrorAs(t, err, &ve)
	return ve.Message
}

func TestNewPage_SelectsFlowFromQuery(t *testing.T) {
	f := newFixture()

	assert.Equal(t, StateLogin, f.page("").State())
	assert.Equal(t, StatePasswordReset, f.page("resetId=abc").State())
	assert.Equal(t, StateLogin, f.page("resetId=").State())
}

func TestPage_MountRedirectsWhenLoggedIn(t *testing.T) {
	f := newFixture()
	p := f.page("")

	moved, err := p.Mount(context.Background())
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Empty(t, f.nav.Paths())

	require.NoError(t, f.sessions.Set(context.Background(), userSession(t)))
	moved, err = p.Mount(context.Background())
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, []string{common.DashboardPath}, f.nav.Paths())
}

func TestPage_LoginValidation(t *testing.T) {
	tests := []struct {
		name, email, password, want string
	}{
		{"empty email", "", "secret", "Please fill in all fields."},
		{"empty password", "ana@yudo.app", "", "Please fill in all fields."},
		{"bad email", "ana@yudo", "secret", "Please enter a valid email address."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			err := f.page("").Login(context.Background(), tt.email, tt.password)
			assert.Equal(t, tt.want, validationMessage(t, err))
			assert.Empty(t, f.api.Calls())
		})
	}
}

func TestPage_LoginSuccess(t *testing.T) {
	f := newFixture()
	want := userSession(t)
	f.api.LoginFn = func(_ context.Context, email, password string) (*models.Session, error) {
		return want, nil
	}
	p := f.page("")

	require.NoError(t, p.Login(context.Background(), " ana@yudo.app ", "secret"))

	assert.Equal(t, []string{"ana@yudo.app", "secret"}, f.api.Calls()[0].Args)
	got, _ := f.sessions.Get(context.Background())
	assert.Same(t, want, got)
	assert.Equal(t, []string{common.DashboardPath}, f.nav.Paths())
	assert.Equal(t, StateAuthenticated, p.State())
	assert.False(t, p.Waiting())
}

func TestPage_LoginFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &api.ServerError{Status: 401, Message: "Invalid credentials"}, "Invalid credentials"},
		{"no message", &api.ServerError{Status: 500}, loginFailed},
		{"network", fmt.Errorf("%w: dial tcp", api.ErrUnavailable), services.GenericError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.api.LoginFn = func(context.Context, string, string) (*models.Session, error) {
				return nil, tt.err
			}
			p := f.page("")

			err := p.Login(context.Background(), "ana@yudo.app", "secret")
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.ErrorIs(t, err, tt.err)
			assert.Zero(t, f.sessions.Sets())
			assert.Empty(t, f.nav.Paths())
			assert.Equal(t, StateLogin, p.State())
		})
	}
}

func TestPage_RejectsDuplicateSubmission(t *testing.T) {
	f := newFixture()
	release := make(chan struct{})
	entered := make(chan struct{})
	f.api.LoginFn = func(context.Context, string, string) (*models.Session, error) {
		close(entered)
		<-release
		return nil, &api.ServerError{Status: 401, Message: "nope"}
	}
	p := f.page("")

	done := make(chan error, 1)
	go func() { done <- p.Login(context.Background(), "ana@yudo.app", "secret") }()
	<-entered

	assert.True(t, p.Waiting())
	assert.ErrorIs(t, p.Login(context.Background(), "ana@yudo.app", "secret"), common.ErrBusy)
	assert.ErrorIs(t, p.SelectTab(TabSignup), common.ErrBusy)

	close(release)
	require.Error(t, <-done)
	assert.Equal(t, 1, f.api.Count("Login"))
	assert.False(t, p.Waiting())
}

func TestPage_SelectTab(t *testing.T) {
	f := newFixture()
	p := f.page("")

	require.NoError(t, p.SelectTab(TabSignup))
	assert.Equal(t, StateSignupCollecting, p.State())
	assert.Equal(t, TabSignup, p.Tab())

	require.NoError(t, p.SendOTP(context.Background(), "ana@yudo.app", "password1", "password1"))
	require.NoError(t, p.SelectTab(TabLogin))
	assert.Equal(t, StateLogin, p.State())
	assert.Zero(t, p.RemainingSeconds())

	require.NoError(t, p.SelectTab(TabSignup))
	assert.Equal(t, StateSignupCollecting, p.State())
	assert.False(t, p.InputsLocked())

	reset := f.page("resetId=abc")
	assert.ErrorIs(t, reset.SelectTab(TabSignup), ErrWrongState)
}

func TestPage_SendOTPValidationOrder(t *testing.T) {
	tests := []struct {
		name                     string
		email, password, confirm string
		want                     string
	}{
		{"missing field", "ana@yudo.app", "", "", "Please fill in all fields."},
		{"bad email wins over short password", "nope", "short", "other", "Please enter a valid email address."},
		{"short password wins over mismatch", "ana@yudo.app", "short", "other", "Password must be at least 8 characters long."},
		{"mismatch", "ana@yudo.app", "password1", "password2", "Passwords do not match."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			p := f.page("")
			require.NoError(t, p.SelectTab(TabSignup))

			err := p.SendOTP(context.Background(), tt.email, tt.password, tt.confirm)
			assert.Equal(t, tt.want, validationMessage(t, err))
			assert.Empty(t, f.api.Calls())
			assert.Equal(t, StateSignupCollecting, p.State())
		})
	}
}

func TestPage_SendOTPStartsCountdown(t *testing.T) {
	f := newFixture()
	p := f.page("")
	require.NoError(t, p.SelectTab(TabSignup))

	require.NoError(t, p.SendOTP(context.Background(), "ana@yudo.app", "password1", "password1"))

	assert.Equal(t, StateSignupOTPSent, p.State())
	assert.True(t, p.InputsLocked())
	assert.Equal(t, 60, p.RemainingSeconds())
	assert.False(t, p.CanResend())

	f.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 60, p.RemainingSeconds())
	f.clock.Advance(time.Second)
	assert.Equal(t, 59, p.RemainingSeconds())
	f.clock.Advance(time.Hour)
	assert.Equal(t, 0, p.RemainingSeconds())
	assert.True(t, p.CanResend())
}

func TestPage_SendOTPFailureKeepsForm(t *testing.T) {
	f := newFixture()
	f.api.SendOTPFn = func(context.Context, string, string) error {
		return &api.ServerError{Status: 409, Message: "User already exists"}
	}
	p := f.page("")
	require.NoError(t, p.SelectTab(TabSignup))

	err := p.SendOTP(context.Background(), "ana@yudo.app", "password1", "password1")
	assert.EqualError(t, err, "User already exists")
	assert.Equal(t, StateSignupCollecting, p.State())
	assert.False(t, p.InputsLocked())
	assert.Zero(t, p.RemainingSeconds())
}

func TestPage_ResendOnlyAfterCountdown(t *testing.T) {
	f := newFixture()
	p := f.page("")
	require.NoError(t, p.SelectTab(TabSignup))
	require.NoError(t, p.SendOTP(context.Background(), "ana@yudo.app", "password1", "password1"))

	f.clock.Advance(30 * time.Second)
	err := p.ResendOTP(context.Background())
	assert.Equal(t, "Please wait 30 seconds before requesting a new code.", validationMessage(t, err))
	assert.Equal(t, 1, f.api.Count("SendOTP"))

	f.clock.Advance(30 * time.Second)
	require.NoError(t, p.ResendOTP(context.Background()))
	assert.Equal(t, 2, f.api.Count("SendOTP"))
	assert.Equal(t, []string{"ana@yudo.app", "password1"}, f.api.Calls()[1].Args)
	assert.Equal(t, 60, p.RemainingSeconds())
}

func TestPage_Countdown(t *testing.T) {
	f := newFixture()
	p := f.page("")
	require.NoError(t, p.SelectTab(TabSignup))
	require.NoError(t, p.SendOTP(context.Background(), "ana@yudo.app", "password1", "password1"))

	ch := p.Countdown(context.Background())
	tk := f.tickers.Next(time.Second)
	require.NotNil(t, tk)
	assert.Equal(t, time.Second, tk.Interval)

	f.clock.Advance(59 * time.Second)
	tk.Tick()
	assert.Equal(t, 1, <-ch)

	f.clock.Advance(time.Second)
	tk.Tick()
	assert.Equal(t, 0, <-ch)

	_, open := <-ch
	assert.False(t, open)
	assert.Eventually(t, tk.Stopped, time.Second, 5*time.Millisecond)
}

func TestPage_CountdownStopsWithContext(t *testing.T) {
	f := newFixture()
	p := f.page("")
	ctx, cancel := context.WithCancel(context.Background())

	ch := p.Countdown(ctx)
	tk := f.tickers.Next(time.Second)
	require.NotNil(t, tk)
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Eventually(t, tk.Stopped, time.Second, 5*time.Millisecond)
}

func TestPage_DigitEntry(t *testing.T) {
	f := newFixture()
	p := f.page("")
	require.NoError(t, p.SelectTab(TabSignup))

	assert.ErrorIs(t, p.SetDigit(0, "1"), ErrWrongState)

	require.NoError(t, p.SendOTP(context.Background(), "ana@yudo.app", "password1", "password1"))
	assert.Equal(t, 0, p.Focus())

	require.NoError(t, p.SetDigit(0, "1"))
	assert.Equal(t, 1, p.Focus())
	require.NoError(t, p.SetDigit(1, "2"))
	assert.Equal(t, 2, p.Focus())

	err := p.SetDigit(2, "x")
	assert.Equal(t, "Only digits are allowed.", validationMessage(t, err))
	assert.Error(t, p.SetDigit(4, "1"))

	require.NoError(t, p.SetDigit(1, ""))
	assert.Equal(t, 1, p.Focus())
	assert.Equal(t, [4]string{"1", "", "", ""}, p.Digits())

	require.NoError(t, p.SetOTP("987654"))
	assert.Equal(t, [4]string{"9", "8", "7", "6"}, p.Digits())
	assert.Equal(t, 3, p.Focus())
}

func TestPage_VerifyOTP(t *testing.T) {
	f := newFixture()
	want := userSession(t)
	f.api.VerifyOTPFn = func(context.Context, string, string, string) (*models.Session, error) {
		return want, nil
	}
	p := f.page("")
	require.NoError(t, p.SelectTab(TabSignup))
	require.NoError(t, p.SendOTP(context.Background(), "ana@yudo.app", "password1", "password1"))

	require.NoError(t, p.SetOTP("123"))
	err := p.VerifyOTP(context.Background())
	assert.Equal(t, "Please enter the complete 4-digit code.", validationMessage(t, err))
	assert.Zero(t, f.api.Count("VerifyOTP"))

	require.NoError(t, p.SetDigit(3, "4"))
	require.NoError(t, p.VerifyOTP(context.Background()))

	calls := f.api.Calls()
	assert.Equal(t, []string{"ana@yudo.app", "1234", "password1"}, calls[len(calls)-1].Args)
	got, _ := f.sessions.Get(context.Background())
	assert.Same(t, want, got)
	assert.Equal(t, []string{common.DashboardPath}, f.nav.Paths())
}

func TestPage_ShortPasteClearsEarlierDigits(t *testing.T) {
	f := newFixture()
	f.api.VerifyOTPFn = func(context.Context, string, string, string) (*models.Session, error) {
		return nil, &api.ServerError{Status: 400}
	}
	p := f.page("")
	require.NoError(t, p.SelectTab(TabSignup))
	require.NoError(t, p.SendOTP(context.Background(), "ana@yudo.app", "password1", "password1"))
	require.NoError(t, p.SetOTP("1234"))
	require.Error(t, p.VerifyOTP(context.Background()))

	require.NoError(t, p.SetOTP("12"))
	assert.Equal(t, [4]string{"1", "2", "", ""}, p.Digits())
	assert.Equal(t, 2, p.Focus())

	err := p.VerifyOTP(context.Background())
	assert.Equal(t, "Please enter the complete 4-digit code.", validationMessage(t, err))
	assert.Equal(t, 1, f.api.Count("VerifyOTP"))
}

func TestPage_VerifyOTPFailureReturnsToOTPEntry(t *testing.T) {
	f := newFixture()
	f.api.VerifyOTPFn = func(context.Context, string, string, string) (*models.Session, error) {
		return nil, &api.ServerError{Status: 400}
	}
	p := f.page("")
	require.NoError(t, p.SelectTab(TabSignup))
	require.NoError(t, p.SendOTP(context.Background(), "ana@yudo.app", "password1", "password1"))
	require.NoError(t, p.SetOTP("1234"))

	err := p.VerifyOTP(context.Background())
	assert.EqualError(t, err, verifyFailed)
	assert.Equal(t, StateSignupOTPSent, p.State())
	assert.Zero(t, f.sessions.Sets())
}

func TestPage_ResetPassword(t *testing.T) {
	f := newFixture()
	p := f.page("resetId=tok-1")

	err := p.ResetPassword(context.Background(), "short", "short")
	assert.Equal(t, "Password must be at least 8 characters long.", validationMessage(t, err))
	assert.Empty(t, f.api.Calls())

	require.NoError(t, p.ResetPassword(context.Background(), "password1", "password1"))
	assert.Equal(t, []string{"tok-1", "password1"}, f.api.Calls()[0].Args)
	assert.Equal(t, StateLogin, p.State())
	assert.NotEmpty(t, p.Notice())

	assert.ErrorIs(t, p.ResetPassword(context.Background(), "password1", "password1"), ErrWrongState)
}

func TestPage_ResetPasswordFailureKeepsToken(t *testing.T) {
	f := newFixture()
	f.api.ResetPasswordFn = func(context.Context, string, string) error {
		return &api.ServerError{Status: 400, Message: "Reset link expired"}
	}
	p := f.page("resetId=tok-1")

	assert.EqualError(t, p.ResetPassword(context.Background(), "password1", "password1"), "Reset link expired")
	assert.Equal(t, StatePasswordReset, p.State())
}

func TestPage_SendQuickLoginLink(t *testing.T) {
	f := newFixture()
	p := f.page("")

	err := p.SendQuickLoginLink(context.Background(), "")
	assert.Equal(t, "Please enter your email address.", validationMessage(t, err))

	require.NoError(t, p.SendQuickLoginLink(context.Background(), "ana@yudo.app"))
	assert.Equal(t, "Quick login link sent! Check your email.", p.Notice())

	f.api.SendQuickLoginFn = func(context.Context, string) error {
		return errors.New("boom")
	}
	assert.EqualError(t, p.SendQuickLoginLink(context.Background(), "ana@yudo.app"), services.GenericError)
	assert.Empty(t, p.Notice())
}
