package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationAuth     NotificationType = "auth"
	NotificationTelegram NotificationType = "telegram"
	NotificationYudo     NotificationType = "yudo"
	NotificationForm     NotificationType = "form"
)

// NotificationTypes lists the known types in tab order.
var NotificationTypes = []NotificationType{
	NotificationAuth,
	NotificationTelegram,
	NotificationYudo,
	NotificationForm,
}

func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Notification is created server-side and only read by the client.
type Notification struct {
	ID          string
	Title       string
	CreatedAt   time.Time
	Type        NotificationType
	Description string
	User        string
	Read        bool
}

func (n *Notification) UnmarshalJSON(b []byte) error {
	var raw struct {
		MongoID     string           `json:"_id"`
		ID          string           `json:"id"`
		Title       string           `json:"title"`
		CreatedAt   string           `json:"createdAt"`
		Type        NotificationType `json:"type"`
		Description string           `json:"description"`
		User        json.RawMessage  `json:"user"`
		Read        bool             `json:"read"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	n.ID = raw.ID
	if raw.MongoID != "" {
		n.ID = raw.MongoID
	}
	n.Title = raw.Title
	n.Type = raw.Type
	n.Description = raw.Description
	n.Read = raw.Read
	n.User = userRef(raw.User)

	if raw.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339, raw.CreatedAt)
		if err != nil {
			return fmt.Errorf("notification %s: createdAt: %w", n.ID, err)
		}
		n.CreatedAt = ts
	}
	return nil
}

// userRef accepts either a user id string or an embedded user object.
func userRef(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var id string
	if json.Unmarshal(raw, &id) == nil {
		return id
	}
	var u User
	if json.Unmarshal(raw, &u) == nil {
		return u.ID
	}
	return ""
}

// NotificationPage is one page of the notifications listing.
type NotificationPage struct {
	Success bool           `json:"success"`
	Count   int            `json:"count"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	Pages   int            `json:"pages"`
	Data    []Notification `json:"data"`
}

// Unread counts items with Read == false.
func (p *NotificationPage) Unread() int {
	n := 0
	for _, item := range p.Data {
		if !item.Read {
			n++
		}
	}
	return n
}
