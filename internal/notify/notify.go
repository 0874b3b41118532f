// Package notify holds the outbound collaborators of the quest workflow:
// the Telegram notifier, the avatar-generation webhook and the dispatcher
// that runs both detached from the request.
package notify

import (
	"context"
	"time"

	"lifequest_miniapp/pkg/logger"

	"go.uber.org/zap"
)

const effectTimeout = 20 * time.Second

// AvatarJob is the context the external generation pipeline needs to render
// a hero avatar.
type AvatarJob struct {
	UserID     string  `json:"user_id"`
	TelegramID int64   `json:"tg_id"`
	SelfieURL  *string `json:"selfie_url"`
	Branch     string  `json:"branch"`
	Gender     *string `json:"gender"`
	Age        *int    `json:"age"`
	Level      int     `json:"level"`
}

// Dispatcher runs side effects in detached goroutines. Effects get their own
// deadline and are never cancelled by the request that spawned them; errors
// are logged and swallowed.
type Dispatcher struct{}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.Logger().Error("outbound effect failed",
				zap.String("effect", name),
				zap.Error(err))
		}
	}()
}
