package service

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers out-of-band notifications to users. Delivery is
// best-effort: callers log failures and move on, a notification never
// fails the operation that triggered it.
type Notifier interface {
	Notify(ctx context.Context, userID uint, event, message string) error
}

// LogNotifier is the default Notifier. It writes the notification to the
// application log, which is enough for single-node deployments.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, userID uint, event, message string) error {
	log := n.Log
	if log == nil {
		log = zap.L()
	}
	log.Info("notify",
		zap.Uint("user_id", userID),
		zap.String("event", event),
		zap.String("message", message),
	)
	return nil
}

// notify fires a notification and swallows any failure.
func notify(ctx context.Context, n Notifier, userID uint, event, message string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, userID, event, message); err != nil {
		zap.L().Warn("notification failed",
			zap.Uint("user_id", userID),
			zap.String("event", event),
			zap.Error(err),
		)
	}
}
