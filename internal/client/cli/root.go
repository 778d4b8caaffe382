package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yudo-scheduler/yudo/internal/client/links"
	"github.com/yudo-scheduler/yudo/internal/client/services/auth"
)

func (a *App) getStatus() string {
	var parts []string
	if s := a.currentUser(); s != nil && a.isLoggedIn() {
		parts = append(parts, s.DisplayName())
	}
	if m := a.mode(); m != "" {
		parts = append(parts, string(m))
	}
	if a.isLoggedIn() {
		if badge := a.center.Badge(); badge != "" {
			parts = append(parts, "["+badge+"]")
		}
	} else if p := a.authPage(); p != nil && p.State() == auth.StateSignupOTPSent {
		if left := p.RemainingSeconds(); left > 0 {
			parts = append(parts, fmt.Sprintf("resend in %ds", left))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf(" (%s)", strings.Join(parts, " "))
}

// Run starts the background watchers and the link listener, then runs the
// REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	wg.Add(2)
	go func() {
		defer wg.Done()
		a.watchSession(ctx)
	}()
	go func() {
		defer wg.Done()
		a.StartOnlineStatusWatcher(ctx, a.config.PollInterval)
	}()

	if addr := a.config.LinkListenAddr; addr != "" {
		srv := links.NewServer(addr, a.logger, a.HandleLink)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				a.logger.Warn(ctx, "link listener stopped", "error", err)
			}
		}()
	}

	a.Root(ctx)
	return nil
}

// Root greets the user, restores a stored session and runs the REPL.
func (a *App) Root(ctx context.Context) {
	a.println("Welcome to Yudo Scheduler (type 'help' for commands)")

	if _, err := a.openAuth(ctx, nil); err != nil {
		a.logger.Error(ctx, "failed to restore session", "error", err)
	}
	if !a.isLoggedIn() {
		a.println("Log in with 'login', create an account with 'signup', or paste an e-mailed link with 'link <url>'.")
	}

	runREPL(ctx, a, a.getStatus, a.scanner)
}
