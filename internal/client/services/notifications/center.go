// Package notifications implements the notification center: a feed polled on
// a fixed interval, filtered by type tab, with an unread badge and a detail
// view.
package notifications

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/yudo-scheduler/yudo/internal/client/api"
	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/common"
	"github.com/yudo-scheduler/yudo/internal/logging"
	"github.com/yudo-scheduler/yudo/internal/timex"
)

const (
	DefaultInterval = 60 * time.Second
	PageSize        = 10
	maxBadge        = 9
)

// Tab filters the feed. TabAll applies no filter; every other tab is a
// notification type.
type Tab string

const TabAll Tab = "all"

// Tabs lists the tabs in display order.
func Tabs() []Tab {
	tabs := []Tab{TabAll}
	for _, t := range models.NotificationTypes {
		tabs = append(tabs, Tab(t))
	}
	return tabs
}

func (t Tab) Valid() bool {
	return t == TabAll || models.NotificationType(t).Valid()
}

type Deps struct {
	API      api.Client
	Log      logging.Logger
	Interval time.Duration
	// NewTicker defaults to timex.NewTicker.
	NewTicker timex.TickerFactory
	// OnUpdate, when set, is called after every applied fetch.
	OnUpdate func()
}

// Center holds the feed state. Polling runs between Start and Stop; each tab
// change restarts the poll interval.
type Center struct {
	deps Deps
	log  logging.Logger

	mu       sync.Mutex
	base     context.Context
	cancel   context.CancelFunc
	gen      uint64
	tab      Tab
	items    []models.Notification
	unread   int
	loading  bool
	err      error
	popover  bool
	selected *models.Notification
}

func NewCenter(deps Deps) *Center {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.NewTicker == nil {
		deps.NewTicker = timex.NewTicker
	}
	if deps.Log == nil {
		deps.Log = logging.Discard()
	}
	return &Center{
		deps: deps,
		log:  deps.Log.With("component", "notifications"),
		tab:  TabAll,
	}
}

// Start begins polling: one fetch right away, then one per interval. Calling
// Start on a running center is a no-op.
func (c *Center) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.base != nil {
		return
	}
	c.base = ctx
	c.restartLocked()
}

// Stop ends polling. Results of fetches still in flight are discarded.
func (c *Center) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.base = nil
	c.gen++
	c.loading = false
}

// SetTab switches the filter. On a running center the current interval is
// torn down, a fetch is issued at once and a new interval starts.
func (c *Center) SetTab(tab Tab) error {
	if !tab.Valid() {
		return fmt.Errorf("unknown notification tab %q", tab)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tab = tab
	c.items = nil
	c.unread = 0
	if c.base != nil {
		c.restartLocked()
	}
	return nil
}

func (c *Center) restartLocked() {
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	c.loading = true

	loopCtx, cancel := context.WithCancel(c.base)
	c.cancel = cancel
	go c.poll(loopCtx, c.base, c.gen, c.tab)
}

// poll drives one interval. Requests run under reqCtx so that a tab change
// does not abort them; their results are dropped by the generation check.
func (c *Center) poll(loopCtx, reqCtx context.Context, gen uint64, tab Tab) {
	t := c.deps.NewTicker(c.deps.Interval)
	defer t.Stop()

	c.fetch(reqCtx, gen, tab)
	for {
		select {
		case <-loopCtx.Done():
			return
		case <-t.C():
			c.fetch(reqCtx, gen, tab)
		}
	}
}

func (c *Center) fetch(ctx context.Context, gen uint64, tab Tab) {
	q := api.NotificationQuery{Limit: PageSize}
	if tab != TabAll {
		q.Type = models.NotificationType(tab)
	}

	page, err := c.deps.API.Notifications(ctx, q)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug(ctx, "discarding stale notifications", "tab", tab)
		return
	}
	c.loading = false
	if err != nil {
		c.err = err
		c.mu.Unlock()
		c.log.Warn(ctx, "failed to fetch notifications", "tab", tab, "error", err)
		c.notify()
		return
	}
	c.err = nil
	c.items = page.Data
	c.unread = page.Unread()
	c.mu.Unlock()

	c.log.Debug(ctx, "notifications fetched", "tab", tab, "count", len(page.Data))
	c.notify()
}

func (c *Center) notify() {
	if c.deps.OnUpdate != nil {
		c.deps.OnUpdate()
	}
}

func (c *Center) Tab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// Items returns the notifications of the latest fetch for the current tab.
func (c *Center) Items() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Notification(nil), c.items...)
}

// Unread is the number of unread notifications in the latest fetch.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unread
}

// Badge renders the unread count: empty for none, "9+" above nine.
func (c *Center) Badge() string {
	return Badge(c.Unread())
}

func Badge(unread int) string {
	switch {
	case unread <= 0:
		return ""
	case unread > maxBadge:
		return strconv.Itoa(maxBadge) + "+"
	default:
		return strconv.Itoa(unread)
	}
}

// Loading reports whether the first fetch for the current tab is pending.
func (c *Center) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err is the error of the latest fetch, if it failed.
func (c *Center) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// EmptyMessage is shown when the feed has nothing to list. It names the type
// when a filter is active.
func (c *Center) EmptyMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return EmptyMessage(c.tab)
}

// EmptyMessage is the text shown when tab has no notifications.
func EmptyMessage(tab Tab) string {
	if tab == TabAll {
		return "No notifications"
	}
	return fmt.Sprintf("No %s notifications", tab)
}

// TogglePopover opens or closes the feed popover and returns the new state.
func (c *Center) TogglePopover() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.popover = !c.popover
	return c.popover
}

func (c *Center) PopoverOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.popover
}

// Open selects a notification for the detail view and closes the popover.
// Nothing is sent to the server.
func (c *Center) Open(id string) (models.Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			n := c.items[i]
			c.selected = &n
			c.popover = false
			return n, nil
		}
	}
	return models.Notification{}, fmt.Errorf("notification %q: %w", id, common.ErrorNotFound)
}

// Selected returns the notification shown in the detail view.
func (c *Center) Selected() (models.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return models.Notification{}, false
	}
	return *c.selected, true
}

func (c *Center) CloseDetail() {
	c.mu.Lock()
	c.selected = nil
	c.mu.Unlock()
}
