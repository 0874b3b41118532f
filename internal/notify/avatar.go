package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"lifequest_miniapp/pkg/logger"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// WebhookAvatarTrigger posts generation jobs to the n8n pipeline. Delivery is
// best-effort: the workflow dispatches and forgets.
type WebhookAvatarTrigger struct {
	webhookURL string
	client     *http.Client
}

func NewWebhookAvatarTrigger(webhookURL string) *WebhookAvatarTrigger {
	return &WebhookAvatarTrigger{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

func (t *WebhookAvatarTrigger) Dispatch(ctx context.Context, job AvatarJob) error {
	if t.webhookURL == "" {
		logger.Logger().Warn("avatar webhook url is not set, skipping dispatch")
		return nil
	}

	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal avatar job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build avatar webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call avatar webhook: %w", err)
	}
	defer resp.Body.Close()

	logger.Logger().Info("avatar webhook dispatched",
		zap.Int("status", resp.StatusCode),
		zap.String("user_id", job.UserID),
		zap.Int64("tg_id", job.TelegramID),
		zap.Int("level", job.Level))

	return nil
}
