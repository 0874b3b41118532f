// Package reminder nudges recently active users about their daily quests
// on a fixed schedule.
package reminder

import (
	"context"
	"time"

	"lifequest_miniapp/internal/notify"
	"lifequest_miniapp/internal/service"
	"lifequest_miniapp/pkg/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// activeWindow: only users seen within this window get reminded.
const activeWindow = 7 * 24 * time.Hour

const runTimeout = 5 * time.Minute

type Scheduler struct {
	users    service.UserRepository
	notifier service.Notifier
	cron     *cron.Cron
	spec     string
}

// NewScheduler builds a scheduler from a cron spec, e.g. "0 9 * * *" for
// 09:00 UTC daily.
func NewScheduler(users service.UserRepository, notifier service.Notifier, spec string) *Scheduler {
	return &Scheduler{
		users:    users,
		notifier: notifier,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		spec:     spec,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return err
	}
	s.cron.Start()
	logger.Logger().Info("daily reminder scheduler started", zap.String("spec", s.spec))
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) run() {
	log := logger.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	since := time.Now().UTC().Add(-activeWindow)
	users, err := s.users.GetActiveUsersSince(ctx, since)
	if err != nil {
		log.Error("failed to load active users for reminders", zap.Error(err))
		return
	}

	text := notify.DailyReminderMessage()
	sent := 0
	for _, user := range users {
		if err := s.notifier.Send(ctx, user.TelegramID, text); err != nil {
			log.Error("failed to send reminder",
				zap.Error(err),
				zap.Int64("telegram_id", user.TelegramID))
			continue
		}
		sent++

		// Spread sends out to stay under the bot API rate limit.
		time.Sleep(100 * time.Millisecond)
	}

	log.Info("daily reminders sent", zap.Int("count", sent))
}
