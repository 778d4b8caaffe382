package api

import (
	"context"

	"github.com/yudo-scheduler/yudo/internal/client/models"
)

// NotificationQuery selects a page of notifications. An empty Type means all
// types.
type NotificationQuery struct {
	Limit int
	Type  models.NotificationType
}

// Client is the transport-agnostic contract with the Yudo REST API. Every
// successful authenticating call returns the session object verbatim.
type Client interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	SendOTP(ctx context.Context, email, password string) error
	VerifyOTP(ctx context.Context, email, otp, password string) (*models.Session, error)
	ResetPassword(ctx context.Context, resetID, password string) error
	SendQuickLogin(ctx context.Context, email string) error
	QuickLogin(ctx context.Context, token string) (*models.Session, error)
	Notifications(ctx context.Context, q NotificationQuery) (*models.NotificationPage, error)
	Ping(ctx context.Context) error
}
