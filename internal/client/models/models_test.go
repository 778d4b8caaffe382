package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSession(t *testing.T) {
	raw := []byte(`{"user":{"_id":"u1","email":"ana@yudo.app","name":"Ana","plan":"pro"},"token":"abc","extra":[1,2]}`)

	s, err := ParseSession(raw)
	require.NoError(t, err)

	assert.Equal(t, User{ID: "u1", Email: "ana@yudo.app", Name: "Ana"}, s.User)
	assert.Equal(t, "abc", s.Token)
	assert.JSONEq(t, string(raw), string(s.Raw))
	assert.Equal(t, "Ana", s.DisplayName())
}

func TestParseSession_PlainIDAndAccessToken(t *testing.T) {
	s, err := ParseSession([]byte(`{"user":{"id":"7","email":"x@y.io"},"accessToken":"t"}`))
	require.NoError(t, err)
	assert.Equal(t, "7", s.User.ID)
	assert.Equal(t, "t", s.Token)
	assert.Equal(t, "x@y.io", s.DisplayName())
}

func TestParseSession_Rejects(t *testing.T) {
	for _, in := range []string{``, `null`, `[]`, `"user"`, `{broken`} {
		_, err := ParseSession([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidSession, in)
	}
}

func TestNotification_Unmarshal(t *testing.T) {
	raw := `{"_id":"n1","title":"Reminder sent","createdAt":"2024-05-01T10:00:00.000Z",
		"type":"telegram","description":"Sent to @ana","user":{"_id":"u1"},"read":false}`

	var n Notification
	require.NoError(t, json.Unmarshal([]byte(raw), &n))

	want := Notification{
		ID:          "n1",
		Title:       "Reminder sent",
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Type:        NotificationTelegram,
		Description: "Sent to @ana",
		User:        "u1",
	}
	if diff := cmp.Diff(want, n); diff != "" {
		t.Fatalf("notification mismatch (-want +got):\n%s", diff)
	}
}

func TestNotification_UserAsString(t *testing.T) {
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{"id":"n2","user":"u9","read":true}`), &n))
	assert.Equal(t, "n2", n.ID)
	assert.Equal(t, "u9", n.User)
	assert.True(t, n.Read)
	assert.True(t, n.CreatedAt.IsZero())
}

func TestNotification_BadDate(t *testing.T) {
	var n Notification
	err := json.Unmarshal([]byte(`{"id":"n3","createdAt":"yesterday"}`), &n)
	require.Error(t, err)
}

func TestNotificationPage_Unread(t *testing.T) {
	p := NotificationPage{Data: []Notification{{Read: false}, {Read: true}, {Read: false}}}
	assert.Equal(t, 2, p.Unread())
}

func TestNotificationType_Valid(t *testing.T) {
	for _, nt := range NotificationTypes {
		assert.True(t, nt.Valid())
	}
	assert.False(t, NotificationType("sms").Valid())
	assert.False(t, NotificationType("").Valid())
}
