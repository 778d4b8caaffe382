package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yudo-scheduler/yudo/internal/client/api"
	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/client/nav"
	"github.com/yudo-scheduler/yudo/internal/client/services/notifications"
)

var errNotLoggedIn = errors.New("not logged in; use 'login', 'signup' or 'link <url>'")

// skeletonRows is how many placeholder rows stand in for the feed while the
// first fetch is pending.
const skeletonRows = 3

func (a *App) requireDashboard() error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

// Notifications toggles the notification popover and shows the feed when it
// opens.
func (a *App) Notifications(_ context.Context, _ []string) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}
	if a.center.TogglePopover() {
		a.renderNotifications()
	} else {
		a.println("Notifications closed.")
	}
	return nil
}

// Tab switches the notification filter.
func (a *App) Tab(_ context.Context, args []string) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: tab <%s>", joinTabs())
	}
	if err := a.center.SetTab(notifications.Tab(strings.ToLower(args[0]))); err != nil {
		return fmt.Errorf("unknown tab %q, choose one of: %s", args[0], joinTabs())
	}
	a.printf("Showing %s notifications.\n", args[0])
	if a.center.PopoverOpen() {
		a.renderNotifications()
	}
	return nil
}

func joinTabs() string {
	var names []string
	for _, t := range notifications.Tabs() {
		names = append(names, string(t))
	}
	return strings.Join(names, "|")
}

// Open shows one notification by id or by its position in the list.
func (a *App) Open(_ context.Context, args []string) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: open <number|id>")
	}

	id := args[0]
	if n, err := strconv.Atoi(id); err == nil {
		items := a.center.Items()
		if n >= 1 && n <= len(items) {
			id = items[n-1].ID
		}
	}

	n, err := a.center.Open(id)
	if err != nil {
		return err
	}
	a.renderDetail(n)
	return nil
}

// CloseDetail dismisses the detail view.
func (a *App) CloseDetail(_ context.Context, _ []string) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}
	a.center.CloseDetail()
	return nil
}

// View switches the dashboard view.
func (a *App) View(_ context.Context, args []string) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}
	if len(args) == 0 {
		a.renderSidebar()
		return nil
	}
	if err := a.sidebar.Select(strings.ToLower(args[0])); err != nil {
		return err
	}
	a.printf("Switched to %s.\n", a.sidebar.Active().Title)
	return nil
}

// Menu opens or closes the sidebar sheet on narrow terminals.
func (a *App) Menu(_ context.Context, _ []string) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}
	if a.sidebar.Layout(terminalWidth()) == nav.LayoutRail {
		a.renderSidebar()
		return nil
	}
	if a.sidebar.SheetOpen() {
		a.sidebar.CloseSheet()
		return nil
	}
	a.sidebar.OpenSheet()
	a.renderSidebar()
	return nil
}

// Collapse toggles the sidebar between full titles and initials.
func (a *App) Collapse(_ context.Context, _ []string) error {
	if err := a.requireDashboard(); err != nil {
		return err
	}
	a.sidebar.ToggleCollapse()
	a.renderSidebar()
	return nil
}

func (a *App) renderSidebar() {
	active := a.sidebar.Active().ID

	if a.sidebar.Layout(terminalWidth()) == nav.LayoutSheet && !a.sidebar.SheetOpen() {
		a.printf("[menu] %s\n", a.sidebar.Active().Title)
		return
	}

	var b strings.Builder
	for _, it := range a.sidebar.Items() {
		marker := " "
		if it.ID == active {
			marker = "*"
		}
		label := it.Title
		if a.sidebar.Collapsed() {
			label = it.Title[:1]
		}
		fmt.Fprintf(&b, "%s %-14s (%s)\n", marker, label, it.ID)
	}
	a.printf("%s", b.String())
}

func (a *App) renderNotifications() {
	var b strings.Builder
	fmt.Fprintf(&b, "Notifications [%s]", a.center.Tab())
	if badge := a.center.Badge(); badge != "" {
		fmt.Fprintf(&b, " (%s unread)", badge)
	}
	b.WriteString("\n")

	items := a.center.Items()
	switch {
	case a.center.Loading() && len(items) == 0:
		for i := 0; i < skeletonRows; i++ {
			b.WriteString("  ░░░░░░░░░░░░░░░░░░░░░░░░░░░░\n")
		}
	case len(items) == 0:
		fmt.Fprintf(&b, "  %s\n", a.center.EmptyMessage())
	default:
		a.writeItems(&b, items)
	}
	if err := a.center.Err(); err != nil {
		b.WriteString("  (last refresh failed, showing previous results)\n")
	}
	a.printf("%s", b.String())
}

func (a *App) writeItems(b *strings.Builder, items []models.Notification) {
	for i, n := range items {
		mark := " "
		if !n.Read {
			mark = "●"
		}
		fmt.Fprintf(b, "%2d. %s [%s] %s  %s\n", i+1, mark, n.Type, n.Title, a.ago(n.CreatedAt))
	}
}

// PrintFeed fetches one page of notifications for tab and prints it. It is
// the non-interactive counterpart of the notification popover.
func (a *App) PrintFeed(ctx context.Context, tab string) error {
	s, err := a.sessions.Get(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return errNotLoggedIn
	}

	t := notifications.Tab(strings.ToLower(tab))
	if t == "" {
		t = notifications.TabAll
	}
	if !t.Valid() {
		return fmt.Errorf("unknown tab %q, choose one of: %s", tab, joinTabs())
	}

	q := api.NotificationQuery{Limit: notifications.PageSize}
	if t != notifications.TabAll {
		q.Type = models.NotificationType(t)
	}
	page, err := a.api.Notifications(ctx, q)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Notifications [%s]", t)
	if badge := notifications.Badge(page.Unread()); badge != "" {
		fmt.Fprintf(&b, " (%s unread)", badge)
	}
	b.WriteString("\n")
	if len(page.Data) == 0 {
		fmt.Fprintf(&b, "  %s\n", notifications.EmptyMessage(t))
	}
	a.writeItems(&b, page.Data)
	a.printf("%s", b.String())
	return nil
}

func (a *App) renderDetail(n models.Notification) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", n.Title)
	fmt.Fprintf(&b, "Type: %s\n", n.Type)
	if !n.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Date: %s (%s)\n", n.CreatedAt.Local().Format("2006-01-02 15:04"), a.ago(n.CreatedAt))
	}
	if n.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", n.Description)
	}
	a.printf("%s", b.String())
}

// ago renders t relative to now, coarsely.
func (a *App) ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := a.now().Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
