package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yudo-scheduler/yudo/internal/client/links"
	"github.com/yudo-scheduler/yudo/internal/client/services/auth"
	"github.com/yudo-scheduler/yudo/internal/common"
)

// getText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getText = func(a *App, prompt, def string) (string, error) {
	return GetTextWithDefault(a.scanner, prompt, def, a.out)
}

var getPassword = func(a *App, prompt string) (string, error) {
	pw, err := GetPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

var errLoggedIn = errors.New("already logged in; use 'logout' first")

// loginPage returns the current auth page, loading one if needed. It fails
// when a user is already logged in.
func (a *App) loginPage(ctx context.Context) (*auth.Page, error) {
	if a.isLoggedIn() {
		return nil, errLoggedIn
	}
	if p := a.authPage(); p != nil {
		return p, nil
	}
	p, err := a.openAuth(ctx, nil)
	if err != nil {
		return nil, err
	}
	if a.isLoggedIn() {
		return nil, errLoggedIn
	}
	return p, nil
}

func (a *App) lastEmail(ctx context.Context) string {
	email, err := a.sessions.LastEmail(ctx)
	if err != nil {
		a.logger.Debug(ctx, "last email unavailable", "error", err)
	}
	return email
}

// Login prompts for credentials (the email may be given as an argument) and
// logs in.
func (a *App) Login(ctx context.Context, args []string) error {
	p, err := a.loginPage(ctx)
	if err != nil {
		return err
	}
	if p.Tab() != auth.TabLogin {
		if err := p.SelectTab(auth.TabLogin); err != nil {
			return err
		}
	}

	email, err := a.argOrPrompt(args, "Enter email", a.lastEmail(ctx))
	if err != nil {
		return err
	}
	password, err := getPassword(a, "Enter password")
	if err != nil {
		return err
	}

	return p.Login(ctx, email, password)
}

// Signup collects the signup form and requests a verification code.
func (a *App) Signup(ctx context.Context, args []string) error {
	p, err := a.loginPage(ctx)
	if err != nil {
		return err
	}
	if err := p.SelectTab(auth.TabSignup); err != nil {
		return err
	}
	if p.InputsLocked() {
		return fmt.Errorf("a code was already sent; enter it with 'otp <code>' or type 'resend'")
	}

	email, err := a.argOrPrompt(args, "Enter email", "")
	if err != nil {
		return err
	}
	password, err := getPassword(a, "Choose password")
	if err != nil {
		return err
	}
	confirm, err := getPassword(a, "Confirm password")
	if err != nil {
		return err
	}

	if err := p.SendOTP(ctx, email, password, confirm); err != nil {
		return err
	}

	a.printf("We sent a 4-digit code to %s. Enter it with 'otp <code>'.\n", email)
	a.printf("You can request a new code in %d seconds.\n", p.RemainingSeconds())
	a.startOTPCountdown(p)
	return nil
}

// OTP types the verification code and submits it.
func (a *App) OTP(ctx context.Context, args []string) error {
	p, err := a.loginPage(ctx)
	if err != nil {
		return err
	}
	if p.State() != auth.StateSignupOTPSent {
		return fmt.Errorf("no code pending; start with 'signup'")
	}

	code, err := a.argOrPrompt(args, "Enter the 4-digit code", "")
	if err != nil {
		return err
	}
	if err := p.SetOTP(code); err != nil {
		return err
	}
	return p.VerifyOTP(ctx)
}

// Resend requests a new verification code once the countdown is over.
func (a *App) Resend(ctx context.Context, _ []string) error {
	p, err := a.loginPage(ctx)
	if err != nil {
		return err
	}
	if err := p.ResendOTP(ctx); err != nil {
		return err
	}
	a.println("A new code is on its way.")
	a.startOTPCountdown(p)
	return nil
}

// Reset sets a new password. The argument, when given, is the reset link (or
// bare reset id) from the e-mail; without it the page opened by a previous
// link is used.
func (a *App) Reset(ctx context.Context, args []string) error {
	if len(args) > 0 {
		query, err := resetQuery(args[0])
		if err != nil {
			return err
		}
		if _, err := a.openAuth(ctx, query); err != nil {
			return err
		}
	}

	p, err := a.loginPage(ctx)
	if err != nil {
		return err
	}
	if p.State() != auth.StatePasswordReset {
		return fmt.Errorf("no password reset in progress; use 'reset <link>'")
	}

	password, err := getPassword(a, "New password")
	if err != nil {
		return err
	}
	confirm, err := getPassword(a, "Confirm new password")
	if err != nil {
		return err
	}

	if err := p.ResetPassword(ctx, password, confirm); err != nil {
		return err
	}
	a.println(p.Notice())
	return nil
}

func resetQuery(arg string) (url.Values, error) {
	if !strings.ContainsAny(arg, "?=/") {
		return url.Values{"resetId": {arg}}, nil
	}
	l, err := links.Parse(arg)
	if err != nil {
		return nil, err
	}
	if l.Kind != links.KindReset {
		return nil, fmt.Errorf("not a password reset link")
	}
	return l.Query(), nil
}

// QuickLink e-mails a one-time login link.
func (a *App) QuickLink(ctx context.Context, args []string) error {
	p, err := a.loginPage(ctx)
	if err != nil {
		return err
	}
	if p.Tab() != auth.TabLogin {
		if err := p.SelectTab(auth.TabLogin); err != nil {
			return err
		}
	}

	email, err := a.argOrPrompt(args, "Enter email", a.lastEmail(ctx))
	if err != nil {
		return err
	}
	if err := p.SendQuickLoginLink(ctx, email); err != nil {
		return err
	}
	a.println(p.Notice())
	return nil
}

// Link opens a pasted e-mail link.
func (a *App) Link(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: link <url>")
	}
	l, err := links.Parse(args[0])
	if err != nil {
		return err
	}
	return a.HandleLink(ctx, l)
}

// OpenLink handles a link given on the command line. A reset link goes on to
// prompt for the new password.
func (a *App) OpenLink(ctx context.Context, raw string) error {
	l, err := links.Parse(raw)
	if err != nil {
		return err
	}
	if err := a.HandleLink(ctx, l); err != nil {
		return err
	}
	if l.Kind == links.KindReset {
		return a.Reset(ctx, nil)
	}
	return nil
}

// HandleLink runs the flow a link belongs to. It is also the handler of the
// loopback link listener.
func (a *App) HandleLink(ctx context.Context, l links.Link) error {
	switch l.Kind {
	case links.KindQuickLogin:
		a.println("Verifying login link...")
		ql := auth.NewQuickLogin(l.Query(), a.authDeps())
		return ql.Run(ctx)

	case links.KindReset:
		p, err := a.openAuth(ctx, l.Query())
		if err != nil {
			return err
		}
		if p.State() == auth.StatePasswordReset {
			a.println("Password reset link opened. Type 'reset' to choose a new password.")
		}
		return nil
	}
	return fmt.Errorf("unsupported link %q", l.Kind)
}

// Logout forgets the stored session.
func (a *App) Logout(ctx context.Context, _ []string) error {
	if err := a.sessions.Clear(ctx); err != nil {
		return err
	}
	a.Navigate(common.AuthPath)
	return nil
}

func (a *App) Whoami(ctx context.Context, _ []string) error {
	s, err := a.sessions.Get(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		a.println("Not logged in.")
		return nil
	}
	if s.User.Name != "" {
		a.printf("%s <%s>\n", s.User.Name, s.User.Email)
	} else {
		a.println(s.User.Email)
	}
	return nil
}

func (a *App) argOrPrompt(args []string, prompt, def string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getText(a, prompt, def)
}

// startOTPCountdown tells the user when the resend command becomes
// available.
func (a *App) startOTPCountdown(p *auth.Page) {
	a.stopOTPCountdown()

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.stopCountdown = cancel
	a.mu.Unlock()

	ticks := p.Countdown(ctx)
	go func() {
		for left := range ticks {
			if left == 0 {
				a.println("You can request a new code now: type 'resend'.")
			}
		}
	}()
}

func (a *App) stopOTPCountdown() {
	a.mu.Lock()
	cancel := a.stopCountdown
	a.stopCountdown = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
