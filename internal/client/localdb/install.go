package localdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yudo-scheduler/yudo/internal/cryptox"
)

// Install identifies this client installation. Secret seeds the key that
// seals the stored session.
type Install struct {
	ID     string
	Secret []byte
}

// LoadInstall returns the installation record, creating it on first use.
func LoadInstall(ctx context.Context, db *sql.DB) (*Install, error) {
	var in Install
	err := db.QueryRowContext(ctx, `SELECT id, secret FROM install LIMIT 1`).Scan(&in.ID, &in.Secret)
	if err == nil {
		return &in, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load install: %w", err)
	}

	in = Install{ID: uuid.NewString(), Secret: cryptox.NewSecret()}
	if _, err := db.ExecContext(ctx, `INSERT INTO install (id, secret) VALUES (?, ?)`, in.ID, in.Secret); err != nil {
		return nil, fmt.Errorf("create install: %w", err)
	}
	return &in, nil
}
