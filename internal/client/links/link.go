// Package links turns e-mailed links into auth flows. Links arrive either
// pasted into the terminal or opened in a browser against the loopback
// listener.
package links

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/yudo-scheduler/yudo/internal/common"
)

type Kind string

const (
	KindQuickLogin Kind = "quicklogin"
	KindReset      Kind = "reset"
)

// Link is a parsed e-mail link: a quick-login token or a password reset id.
type Link struct {
	Kind  Kind
	Token string
}

// Query rebuilds the query string the auth flows are opened with.
func (l Link) Query() url.Values {
	q := url.Values{}
	switch l.Kind {
	case KindQuickLogin:
		q.Set("token", l.Token)
	case KindReset:
		q.Set("resetId", l.Token)
	}
	return q
}

// Parse reads a link such as https://yudo.app/quicklogin?token=abc or
// https://yudo.app/auth?resetId=xyz. A bare query string is accepted too.
func Parse(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Link{}, fmt.Errorf("empty link: %w", common.ErrMissingToken)
	}
	if !strings.Contains(raw, "?") && strings.Contains(raw, "=") {
		raw = "?" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, fmt.Errorf("parse link: %w", err)
	}
	q := u.Query()

	if id := strings.TrimSpace(q.Get("resetId")); id != "" {
		return Link{Kind: KindReset, Token: id}, nil
	}
	if tok := strings.TrimSpace(q.Get("token")); tok != "" {
		return Link{Kind: KindQuickLogin, Token: tok}, nil
	}
	if path.Base(u.Path) == string(KindQuickLogin) {
		return Link{}, fmt.Errorf("quick login link without token: %w", common.ErrMissingToken)
	}
	return Link{}, fmt.Errorf("link has no token or resetId: %w", common.ErrMissingToken)
}
