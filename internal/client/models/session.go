// Package models defines the client-side data shapes exchanged with the Yudo
// API and kept in local storage.
package models

import (
	"encoding/json"
	"errors"
)

var ErrInvalidSession = errors.New("session payload is not a JSON object")

// User is the part of the session payload the client reads. Everything else in
// the payload is carried along untouched.
type User struct {
	ID    string
	Email string
	Name  string
}

func (u *User) UnmarshalJSON(b []byte) error {
	var raw struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	u.ID = raw.ID
	if raw.MongoID != "" {
		u.ID = raw.MongoID
	}
	u.Email = raw.Email
	u.Name = raw.Name
	return nil
}

// Session is the opaque authenticated-user object returned by login, OTP
// verification and quick login. Raw is stored verbatim.
type Session struct {
	Raw   json.RawMessage
	User  User
	Token string
}

// ParseSession validates raw as a JSON object and extracts the typed view.
// Unknown or oddly typed fields are tolerated; only the object shape is
// required.
func ParseSession(raw []byte) (*Session, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, ErrInvalidSession
	}

	s := &Session{Raw: append(json.RawMessage(nil), raw...)}
	if u, ok := fields["user"]; ok {
		_ = json.Unmarshal(u, &s.User)
	}
	for _, k := range []string{"token", "accessToken"} {
		if t, ok := fields[k]; ok {
			var tok string
			if json.Unmarshal(t, &tok) == nil && tok != "" {
				s.Token = tok
				break
			}
		}
	}
	return s, nil
}

// DisplayName prefers the user's name and falls back to the email.
func (s *Session) DisplayName() string {
	if s.User.Name != "" {
		return s.User.Name
	}
	return s.User.Email
}
