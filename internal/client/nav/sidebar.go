// Package nav holds the dashboard shell state: which view is active, whether
// the sidebar is collapsed, and how it is laid out for the terminal width.
package nav

import (
	"fmt"
	"sync"

	"github.com/yudo-scheduler/yudo/internal/common"
)

// CompactWidth is the terminal width, in columns, below which the sidebar
// becomes a sheet opened from the menu button.
const CompactWidth = 80

type Layout string

const (
	LayoutRail  Layout = "rail"
	LayoutSheet Layout = "sheet"
)

// Item is one sidebar entry; ID names the dashboard view it selects.
type Item struct {
	ID    string
	Title string
}

// DefaultItems are the dashboard views in sidebar order.
var DefaultItems = []Item{
	{ID: "overview", Title: "Overview"},
	{ID: "reminders", Title: "Reminders"},
	{ID: "calendar", Title: "Calendar"},
	{ID: "notifications", Title: "Notifications"},
	{ID: "settings", Title: "Settings"},
}

// Sidebar keeps the active view. None of its state is persisted.
type Sidebar struct {
	items []Item

	mu        sync.Mutex
	active    string
	collapsed bool
	sheetOpen bool
}

// NewSidebar uses DefaultItems when items is empty. The first item starts
// active.
func NewSidebar(items ...Item) *Sidebar {
	if len(items) == 0 {
		items = DefaultItems
	}
	return &Sidebar{items: items, active: items[0].ID}
}

func (s *Sidebar) Items() []Item {
	return append([]Item(nil), s.items...)
}

func (s *Sidebar) Active() Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, _ := s.find(s.active)
	return item
}

// Select makes id the active view and closes the sheet.
func (s *Sidebar) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.find(id); !ok {
		return fmt.Errorf("view %q: %w", id, common.ErrorNotFound)
	}
	s.active = id
	s.sheetOpen = false
	return nil
}

func (s *Sidebar) find(id string) (Item, bool) {
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// ToggleCollapse flips the rail between full and icon width and returns the
// new state.
func (s *Sidebar) ToggleCollapse() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapsed = !s.collapsed
	return s.collapsed
}

func (s *Sidebar) Collapsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collapsed
}

// Layout picks the rail at or above CompactWidth and the sheet below it.
func (s *Sidebar) Layout(width int) Layout {
	if width >= CompactWidth {
		return LayoutRail
	}
	return LayoutSheet
}

func (s *Sidebar) OpenSheet() {
	s.mu.Lock()
	s.sheetOpen = true
	s.mu.Unlock()
}

func (s *Sidebar) CloseSheet() {
	s.mu.Lock()
	s.sheetOpen = false
	s.mu.Unlock()
}

func (s *Sidebar) SheetOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheetOpen
}
