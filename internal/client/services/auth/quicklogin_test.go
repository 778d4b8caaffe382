package auth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yudo-scheduler/yudo/internal/client/api"
	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/common"
)

func (f *fixture) quickLogin(query string) (*QuickLogin, *[]time.Duration) {
	q, _ := url.ParseQuery(query)
	var waits []time.Duration
	deps := f.deps()
	deps.Sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return NewQuickLogin(q, deps), &waits
}

func TestQuickLogin_MissingToken(t *testing.T) {
	f := newFixture()
	ql, _ := f.quickLogin("")

	err := ql.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrMissingToken)
	assert.Equal(t, QuickLoginError, ql.Status())
	assert.Equal(t, missingToken, ql.Message())
	assert.Empty(t, f.api.Calls())
	assert.Zero(t, f.sessions.Sets())
}

func TestQuickLogin_Success(t *testing.T) {
	f := newFixture()
	want := userSession(t)
	f.api.QuickLoginFn = func(_ context.Context, token string) (*models.Session, error) {
		return want, nil
	}
	ql, waits := f.quickLogin("token=abc")
	assert.Equal(t, QuickLoginIdle, ql.Status())

	require.NoError(t, ql.Run(context.Background()))

	assert.Equal(t, []string{"abc"}, f.api.Calls()[0].Args)
	assert.Equal(t, QuickLoginSuccess, ql.Status())
	assert.Same(t, want, ql.Session())
	got, _ := f.sessions.Get(context.Background())
	assert.Same(t, want, got)
	assert.Equal(t, []time.Duration{RedirectDelay}, *waits)
	assert.Equal(t, []string{common.DashboardPath}, f.nav.Paths())
}

func TestQuickLogin_RunsOnce(t *testing.T) {
	f := newFixture()
	ql, _ := f.quickLogin("token=abc")

	require.NoError(t, ql.Run(context.Background()))
	require.NoError(t, ql.Run(context.Background()))

	assert.Equal(t, 1, f.api.Count("QuickLogin"))
	assert.Len(t, f.nav.Paths(), 1)
}

func TestQuickLogin_Failure(t *testing.T) {
	f := newFixture()
	f.api.QuickLoginFn = func(context.Context, string) (*models.Session, error) {
		return nil, &api.ServerError{Status: 401, Message: "Token expired"}
	}
	ql, waits := f.quickLogin("token=abc")

	err := ql.Run(context.Background())
	assert.EqualError(t, err, "Token expired")
	assert.Equal(t, QuickLoginError, ql.Status())
	assert.Equal(t, "Token expired", ql.Message())
	assert.Nil(t, ql.Session())
	assert.Zero(t, f.sessions.Sets())
	assert.Empty(t, *waits)
	assert.Empty(t, f.nav.Paths())

	assert.Equal(t, err, ql.Run(context.Background()))
	assert.Equal(t, 1, f.api.Count("QuickLogin"))
}

func TestQuickLogin_StoreFailure(t *testing.T) {
	f := newFixture()
	f.sessions.SetErr = errors.New("disk full")
	ql, _ := f.quickLogin("token=abc")

	assert.Error(t, ql.Run(context.Background()))
	assert.Equal(t, QuickLoginError, ql.Status())
	assert.Empty(t, f.nav.Paths())
}

func TestQuickLogin_CancelledBeforeRedirect(t *testing.T) {
	f := newFixture()
	q, _ := url.ParseQuery("token=abc")
	deps := f.deps()
	deps.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	ql := NewQuickLogin(q, deps)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, ql.Run(ctx))
	assert.Equal(t, QuickLoginSuccess, ql.Status())
	assert.Empty(t, f.nav.Paths())
}
