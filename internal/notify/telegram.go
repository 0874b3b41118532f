package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends plain chat messages through the bot API.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramNotifier(botToken string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

func (n *TelegramNotifier) Send(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// GoalAchievedMessage is the congratulation sent when a goal level is reached.
func GoalAchievedMessage(level int, goalText string) string {
	if goalText == "" {
		goalText = "Цель"
	}
	return fmt.Sprintf("🎁 Ты достиг уровня %d и заслужил: %s", level, goalText)
}

// DailyReminderMessage nudges active users to open the mini-app.
func DailyReminderMessage() string {
	return "🌅 Доброе утро, Герой!\n\n" +
		"💪 Новые квесты уже ждут тебя!\n" +
		"🎯 Сегодня отличный день для прокачки!\n\n" +
		"Открой приложение и начни свой путь к цели! 🚀"
}
