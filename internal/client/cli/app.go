package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/yudo-scheduler/yudo/internal/client/api"
	"github.com/yudo-scheduler/yudo/internal/client/config"
	"github.com/yudo-scheduler/yudo/internal/client/localdb"
	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/client/nav"
	"github.com/yudo-scheduler/yudo/internal/client/services/auth"
	"github.com/yudo-scheduler/yudo/internal/client/services/notifications"
	"github.com/yudo-scheduler/yudo/internal/client/session"
	"github.com/yudo-scheduler/yudo/internal/common"
	"github.com/yudo-scheduler/yudo/internal/filex"
	"github.com/yudo-scheduler/yudo/internal/logging"
	"github.com/yudo-scheduler/yudo/internal/timex"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// pingTimeout bounds a single reachability probe.
const pingTimeout = 3 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	api      api.Client
	sessions session.Manager
	center   *notifications.Center
	sidebar  *nav.Sidebar
	scanner  *bufio.Scanner
	out      io.Writer
	now      timex.Clock
	sleep    func(ctx context.Context, d time.Duration) error

	mu            sync.Mutex
	Mode          Mode
	view          string
	page          *auth.Page
	user          *models.Session
	ctx           context.Context
	stopCountdown context.CancelFunc
}

// NewApp opens local storage and wires the API client, session store and
// dashboard components.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}

	db, err := localdb.Open(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	inst, err := localdb.LoadInstall(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store, err := session.NewStore(db, inst.Secret, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	apiClient, err := api.NewHTTPClient(c.APIURL, c.RequestTimeout, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := newApp(c, logger, apiClient, store, os.Stdin, os.Stdout)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, logger logging.Logger, apiClient api.Client, sessions session.Manager, in io.Reader, out io.Writer) *App {
	a := &App{
		config:   c,
		logger:   logger.With("module", "cli"),
		api:      apiClient,
		sessions: sessions,
		sidebar:  nav.NewSidebar(),
		scanner:  bufio.NewScanner(in),
		out:      out,
		now:      time.Now,
		sleep:    timex.Sleep,
		view:     common.AuthPath,
		ctx:      context.Background(),
	}
	a.center = notifications.NewCenter(notifications.Deps{
		API:      apiClient,
		Log:      logger,
		Interval: c.PollInterval,
		OnUpdate: a.onNotificationsUpdated,
	})
	return a
}

// Close stops background polling and closes local storage.
func (a *App) Close() error {
	a.center.Stop()
	a.stopOTPCountdown()
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view == common.DashboardPath && a.user != nil
}

func (a *App) currentUser() *models.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *App) authPage() *auth.Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

func (a *App) authDeps() auth.Deps {
	return auth.Deps{
		API:       a.api,
		Sessions:  a.sessions,
		Navigator: a,
		Log:       a.logger,
		Clock:     a.now,
		Sleep:     a.sleep,
	}
}

// openAuth loads a fresh auth page for query and mounts it, which moves a
// logged-in user straight to the dashboard.
func (a *App) openAuth(ctx context.Context, query url.Values) (*auth.Page, error) {
	a.stopOTPCountdown()
	p := auth.NewPage(query, a.authDeps())

	a.mu.Lock()
	a.page = p
	a.view = common.AuthPath
	a.mu.Unlock()

	if _, err := p.Mount(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Navigate switches between the auth view and the dashboard.
func (a *App) Navigate(path string) {
	switch path {
	case common.DashboardPath:
		a.enterDashboard()
	case common.AuthPath:
		a.leaveDashboard()
	default:
		a.logger.Warn(context.Background(), "unknown navigation target", "path", path)
	}
}

func (a *App) enterDashboard() {
	ctx := context.Background()
	s, err := a.sessions.Get(ctx)
	if err != nil || s == nil {
		a.logger.Warn(ctx, "dashboard requested without a session", "error", err)
		return
	}
	a.stopOTPCountdown()

	a.mu.Lock()
	already := a.view == common.DashboardPath
	a.view = common.DashboardPath
	a.user = s
	runCtx := a.ctx
	a.mu.Unlock()

	if already {
		return
	}
	a.center.Start(runCtx)
	a.printf("Logged in as %s.\n", s.DisplayName())
	a.renderSidebar()
}

func (a *App) leaveDashboard() {
	a.center.Stop()

	a.mu.Lock()
	was := a.view == common.DashboardPath
	a.view = common.AuthPath
	a.user = nil
	a.page = auth.NewPage(nil, a.authDeps())
	a.mu.Unlock()

	if was {
		a.println("Logged out.")
	}
}

// watchSession follows session changes made anywhere (logout, expiry,
// another flow logging in) and keeps the view in step.
func (a *App) watchSession(ctx context.Context) {
	events, cancel := a.sessions.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Session == nil && a.isLoggedIn() {
				a.Navigate(common.AuthPath)
			}
		}
	}
}

// StartOnlineStatusWatcher probes the API every interval and switches
// between online and offline mode. It blocks until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) onNotificationsUpdated() {
	if !a.center.PopoverOpen() {
		return
	}
	a.renderNotifications()
}
