// Package auth implements the authentication page flows: credential login,
// OTP-gated signup, password reset by token, quick-login-link requests, and
// the separate quick-login token exchange.
package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/yudo-scheduler/yudo/internal/client/api"
	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/client/services"
	"github.com/yudo-scheduler/yudo/internal/client/session"
	"github.com/yudo-scheduler/yudo/internal/client/validate"
	"github.com/yudo-scheduler/yudo/internal/common"
	"github.com/yudo-scheduler/yudo/internal/logging"
	"github.com/yudo-scheduler/yudo/internal/timex"
)

// OTPCooldown is how long the resend control stays disabled after a code is
// sent.
const OTPCooldown = 60 * time.Second

// Fallback messages used when the server reports a failure without text.
const (
	loginFailed      = "Login failed. Please check your credentials."
	sendOTPFailed    = "Failed to send OTP. Please try again."
	verifyFailed     = "OTP verification failed. Please try again."
	resetFailed      = "Password reset failed. Please try again."
	quickLinkFailed  = "Failed to send quick login link."
	quickLoginFailed = "Quick login failed. The link may be invalid or expired."
)

type State string

const (
	StateLogin            State = "login"
	StateSignupCollecting State = "signup:collecting-info"
	StateSignupOTPSent    State = "signup:otp-sent"
	StateSignupVerifying  State = "signup:verifying"
	StatePasswordReset    State = "password-reset"
	StateAuthenticated    State = "authenticated"
)

type Tab string

const (
	TabLogin  Tab = "login"
	TabSignup Tab = "signup"
)

var (
	ErrWrongState    = errors.New("action not available in the current state")
	ErrResendTooSoon = errors.New("resend not available yet")
)

// Navigator moves the user to another page.
type Navigator interface {
	Navigate(path string)
}

// Failure is a failed request, with the text to show the user.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }
func (f *Failure) Unwrap() error { return f.Err }

func failure(err error, fallback string) error {
	var ve *validate.Error
	if errors.As(err, &ve) || errors.Is(err, common.ErrBusy) {
		return err
	}
	return &Failure{Message: services.Message(err, fallback), Err: err}
}

// Deps are the collaborators shared by the auth flows.
type Deps struct {
	API       api.Client
	Sessions  session.Manager
	Navigator Navigator
	Log       logging.Logger

	// Optional; default to the real clock, tickers and timex.Sleep.
	Clock     timex.Clock
	NewTicker timex.TickerFactory
	Sleep     func(ctx context.Context, d time.Duration) error
}

func (d *Deps) defaults() {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewTicker == nil {
		d.NewTicker = timex.NewTicker
	}
	if d.Sleep == nil {
		d.Sleep = timex.Sleep
	}
	if d.Log == nil {
		d.Log = logging.Discard()
	}
}

type signupForm struct {
	email    string
	password string
	digits   [validate.OTPLength]string
	focus    int
	deadline time.Time
}

// Page is the auth page. Exactly one flow is active per page: password reset
// when the page was opened with a resetId, otherwise login/signup by tab.
type Page struct {
	deps Deps
	log  logging.Logger

	mu      sync.Mutex
	state   State
	resetID string
	waiting bool
	notice  string
	signup  signupForm
}

// NewPage opens the auth page for the given query string.
func NewPage(query url.Values, deps Deps) *Page {
	deps.defaults()
	p := &Page{deps: deps, log: deps.Log.With("component", "auth"), state: StateLogin}
	if id := strings.TrimSpace(query.Get("resetId")); id != "" {
		p.state = StatePasswordReset
		p.resetID = id
	}
	return p
}

// Mount navigates straight to the dashboard when a session is already stored.
// It reports whether it navigated.
func (p *Page) Mount(ctx context.Context) (bool, error) {
	s, err := p.deps.Sessions.Get(ctx)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, nil
	}
	p.setState(StateAuthenticated)
	p.deps.Navigator.Navigate(common.DashboardPath)
	return true, nil
}

func (p *Page) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Page) Tab() Tab {
	p.mu.Lock()
	defer p.mu.Unlock()
	if strings.HasPrefix(string(p.state), "signup") {
		return TabSignup
	}
	return TabLogin
}

// Waiting reports whether a request is in flight. Submit controls are
// disabled while it is true.
func (p *Page) Waiting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiting
}

// Notice is the latest success message, e.g. after a password reset.
func (p *Page) Notice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notice
}

// InputsLocked reports whether the signup email/password fields are locked
// because a code has been sent.
func (p *Page) InputsLocked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateSignupOTPSent || p.state == StateSignupVerifying
}

// SelectTab switches between login and signup. Switching discards any
// signup progress.
func (p *Page) SelectTab(tab Tab) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.waiting {
		return common.ErrBusy
	}
	if p.state == StatePasswordReset || p.state == StateAuthenticated {
		return ErrWrongState
	}

	switch tab {
	case TabLogin:
		p.state = StateLogin
	case TabSignup:
		if !strings.HasPrefix(string(p.state), "signup") {
			p.state = StateSignupCollecting
		}
		return nil
	default:
		return fmt.Errorf("unknown tab %q", tab)
	}
	p.signup = signupForm{}
	return nil
}

// begin claims the in-flight slot if the page is in one of the allowed states.
func (p *Page) begin(allowed ...State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.waiting {
		return common.ErrBusy
	}
	for _, s := range allowed {
		if p.state == s {
			p.waiting = true
			p.notice = ""
			return nil
		}
	}
	return ErrWrongState
}

func (p *Page) end() {
	p.mu.Lock()
	p.waiting = false
	p.mu.Unlock()
}

func (p *Page) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// authenticated stores the session and leaves for the dashboard.
func (p *Page) authenticated(ctx context.Context, s *models.Session) error {
	if err := p.deps.Sessions.Set(ctx, s); err != nil {
		return err
	}
	p.setState(StateAuthenticated)
	p.deps.Navigator.Navigate(common.DashboardPath)
	return nil
}

// Login submits credentials.
func (p *Page) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validate.Login(email, password); err != nil {
		return err
	}
	if err := p.begin(StateLogin); err != nil {
		return err
	}
	defer p.end()

	s, err := p.deps.API.Login(ctx, email, password)
	if err != nil {
		p.log.Info(ctx, "login failed", "error", err)
		return failure(err, loginFailed)
	}
	p.log.Info(ctx, "login succeeded", "user", s.User.ID)
	return p.authenticated(ctx, s)
}

// SendOTP checks the signup form and requests a code. The checks run in
// order and the first failure is returned without contacting the server.
func (p *Page) SendOTP(ctx context.Context, email, password, confirm string) error {
	email = strings.TrimSpace(email)
	if err := validate.Signup(email, password, confirm); err != nil {
		return err
	}
	if err := p.begin(StateSignupCollecting); err != nil {
		return err
	}
	defer p.end()

	p.mu.Lock()
	p.signup.email = email
	p.signup.password = password
	p.mu.Unlock()

	if err := p.deps.API.SendOTP(ctx, email, password); err != nil {
		p.log.Info(ctx, "send otp failed", "error", err)
		return failure(err, sendOTPFailed)
	}

	p.mu.Lock()
	p.state = StateSignupOTPSent
	p.signup.deadline = p.deps.Clock().Add(OTPCooldown)
	p.signup.digits = [validate.OTPLength]string{}
	p.signup.focus = 0
	p.mu.Unlock()

	p.log.Info(ctx, "otp sent")
	return nil
}

// ResendOTP requests a new code once the countdown has reached zero.
func (p *Page) ResendOTP(ctx context.Context) error {
	if err := p.begin(StateSignupOTPSent); err != nil {
		return err
	}
	defer p.end()

	p.mu.Lock()
	remaining := p.remainingLocked()
	email, password := p.signup.email, p.signup.password
	p.mu.Unlock()

	if remaining > 0 {
		return &validate.Error{
			Field:   "otp",
			Message: fmt.Sprintf("Please wait %d seconds before requesting a new code.", remaining),
		}
	}

	if err := p.deps.API.SendOTP(ctx, email, password); err != nil {
		p.log.Info(ctx, "resend otp failed", "error", err)
		return failure(err, sendOTPFailed)
	}

	p.mu.Lock()
	p.signup.deadline = p.deps.Clock().Add(OTPCooldown)
	p.mu.Unlock()
	return nil
}

// RemainingSeconds is the resend countdown in whole seconds. It is 60 right
// after a send and decreases strictly to 0.
func (p *Page) RemainingSeconds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.remainingLocked()
}

func (p *Page) remainingLocked() int {
	if p.signup.deadline.IsZero() {
		return 0
	}
	left := p.signup.deadline.Sub(p.deps.Clock())
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// CanResend reports whether the resend control is enabled.
func (p *Page) CanResend() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateSignupOTPSent && !p.waiting && p.remainingLocked() == 0
}

// Countdown emits the remaining seconds on every tick until the countdown
// reaches zero, then closes the channel. It stops early when ctx is done.
func (p *Page) Countdown(ctx context.Context) <-chan int {
	out := make(chan int, 1)
	go func() {
		defer close(out)
		t := p.deps.NewTicker(time.Second)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				left := p.RemainingSeconds()
				select {
				case out <- left:
				case <-ctx.Done():
					return
				}
				if left == 0 {
					return
				}
			}
		}
	}()
	return out
}

// SetDigit fills box i with a single digit (or clears it with "") and moves
// focus to the next box.
func (p *Page) SetDigit(i int, d string) error {
	if i < 0 || i >= validate.OTPLength {
		return fmt.Errorf("otp box %d out of range", i)
	}
	if d != "" && !validate.IsDigit(d) {
		return &validate.Error{Field: "otp", Message: "Only digits are allowed."}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateSignupOTPSent {
		return ErrWrongState
	}

	p.signup.digits[i] = d
	switch {
	case d == "":
		p.signup.focus = i
	case i < validate.OTPLength-1:
		p.signup.focus = i + 1
	default:
		p.signup.focus = i
	}
	return nil
}

// SetOTP replaces the boxes with code, as a paste would: earlier digits are
// cleared and typing starts at the first box. Extra characters are ignored.
func (p *Page) SetOTP(code string) error {
	code = strings.TrimSpace(code)

	p.mu.Lock()
	if p.state != StateSignupOTPSent {
		p.mu.Unlock()
		return ErrWrongState
	}
	p.signup.digits = [validate.OTPLength]string{}
	p.signup.focus = 0
	p.mu.Unlock()

	for i, r := range code {
		if i >= validate.OTPLength {
			break
		}
		if err := p.SetDigit(i, string(r)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Page) Digits() [validate.OTPLength]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signup.digits
}

// Focus is the index of the box that receives the next digit.
func (p *Page) Focus() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signup.focus
}

// VerifyOTP submits the typed code. A code with fewer than four digits is
// rejected locally.
func (p *Page) VerifyOTP(ctx context.Context) error {
	p.mu.Lock()
	digits := p.signup.digits
	p.mu.Unlock()

	if err := validate.OTP(digits); err != nil {
		return err
	}
	if err := p.begin(StateSignupOTPSent); err != nil {
		return err
	}
	defer p.end()

	p.mu.Lock()
	p.state = StateSignupVerifying
	email, password := p.signup.email, p.signup.password
	p.mu.Unlock()

	s, err := p.deps.API.VerifyOTP(ctx, email, strings.Join(digits[:], ""), password)
	if err != nil {
		p.setState(StateSignupOTPSent)
		p.log.Info(ctx, "otp verification failed", "error", err)
		return failure(err, verifyFailed)
	}
	p.log.Info(ctx, "signup completed", "user", s.User.ID)
	return p.authenticated(ctx, s)
}

// ResetPassword sets a new password using the page's reset token. On success
// the page returns to the plain login state and the token is forgotten.
func (p *Page) ResetPassword(ctx context.Context, password, confirm string) error {
	if err := validate.NewPassword(password, confirm); err != nil {
		return err
	}
	if err := p.begin(StatePasswordReset); err != nil {
		return err
	}
	defer p.end()

	p.mu.Lock()
	resetID := p.resetID
	p.mu.Unlock()

	if err := p.deps.API.ResetPassword(ctx, resetID, password); err != nil {
		p.log.Info(ctx, "password reset failed", "error", err)
		return failure(err, resetFailed)
	}

	p.mu.Lock()
	p.state = StateLogin
	p.resetID = ""
	p.notice = "Password reset successful. Please log in with your new password."
	p.mu.Unlock()
	return nil
}

// SendQuickLoginLink e-mails a one-time login link.
func (p *Page) SendQuickLoginLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Email(email); err != nil {
		return err
	}
	if err := p.begin(StateLogin); err != nil {
		return err
	}
	defer p.end()

	if err := p.deps.API.SendQuickLogin(ctx, email); err != nil {
		p.log.Info(ctx, "quick login link request failed", "error", err)
		return failure(err, quickLinkFailed)
	}

	p.mu.Lock()
	p.notice = "Quick login link sent! Check your email."
	p.mu.Unlock()
	return nil
}
