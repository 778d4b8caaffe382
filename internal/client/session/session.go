// Package session is the single owner of "is a user logged in". Pages read
// and change the stored session only through Manager.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yudo-scheduler/yudo/internal/client/models"
	"github.com/yudo-scheduler/yudo/internal/client/repositories/storage"
	"github.com/yudo-scheduler/yudo/internal/common"
	"github.com/yudo-scheduler/yudo/internal/cryptox"
	"github.com/yudo-scheduler/yudo/internal/dbx"
	"github.com/yudo-scheduler/yudo/internal/logging"
	"github.com/yudo-scheduler/yudo/internal/timex"
)

const lastEmailKey = common.SessionKey + ".last_email"

// Event is delivered to subscribers on every change. Session is nil after
// Clear.
type Event struct {
	Session *models.Session
}

// Manager is the session-management interface.
type Manager interface {
	// Get returns the stored session, or nil when nobody is logged in.
	Get(ctx context.Context) (*models.Session, error)
	Set(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
	// Subscribe returns a channel of changes and a function that ends the
	// subscription.
	Subscribe() (<-chan Event, func())
	// LastEmail returns the email of the most recent session, kept across
	// logouts to prefill the login form.
	LastEmail(ctx context.Context) (string, error)
}

// Store keeps the session sealed in local storage under common.SessionKey.
type Store struct {
	db  *sql.DB
	key []byte
	now timex.Clock
	log logging.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewStore returns a Store sealing records with a key derived from secret.
func NewStore(db *sql.DB, secret []byte, log logging.Logger) (*Store, error) {
	key, err := cryptox.DeriveKey(secret, "yudo/session")
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return &Store{
		db:   db,
		key:  key,
		now:  time.Now,
		log:  log.With("component", "session"),
		subs: make(map[int]chan Event),
	}, nil
}

func (s *Store) repo(db dbx.DBTX) storage.Repository {
	return storage.NewSQLiteRepository(db)
}

func (s *Store) Get(ctx context.Context) (*models.Session, error) {
	sealed, err := s.repo(s.db).Get(ctx, common.SessionKey)
	if err != nil {
		return nil, err
	}
	if sealed == nil {
		return nil, nil
	}

	raw, err := cryptox.Open(sealed, s.key)
	if err != nil {
		s.log.Warn(ctx, "stored session unreadable, discarding", "error", err)
		return nil, s.Clear(ctx)
	}

	sess, err := models.ParseSession(raw)
	if err != nil {
		s.log.Warn(ctx, "stored session malformed, discarding", "error", err)
		return nil, s.Clear(ctx)
	}

	if expired(sess.Token, s.now()) {
		s.log.Info(ctx, "stored session expired")
		return nil, s.Clear(ctx)
	}
	return sess, nil
}

func (s *Store) Set(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return errors.New("nil session")
	}
	sealed, err := cryptox.Seal(sess.Raw, s.key)
	if err != nil {
		return fmt.Errorf("seal session: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := r.Set(ctx, common.SessionKey, sealed); err != nil {
			return err
		}
		if sess.User.Email != "" {
			return r.Set(ctx, lastEmailKey, []byte(sess.User.Email))
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(Event{Session: sess})
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.repo(s.db).Delete(ctx, common.SessionKey); err != nil {
		return err
	}
	s.publish(Event{})
	return nil
}

func (s *Store) LastEmail(ctx context.Context) (string, error) {
	v, err := s.repo(s.db).Get(ctx, lastEmailKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

func (s *Store) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

// publish keeps only the latest event for slow subscribers.
func (s *Store) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

// expired reports whether token is a JWT whose exp lies before now. Tokens
// that are not JWTs, or carry no exp, never expire client-side.
func expired(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(now)
}
