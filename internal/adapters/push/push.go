package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"clique/config"
	"clique/internal/domain"
)

// NewNotifier creates a push notifier from config. Provider "onesignal" calls
// the OneSignal REST API; "noop" or unknown logs and drops.
func NewNotifier(cfg config.PushConfig, logger *slog.Logger) domain.Notifier {
	switch cfg.Provider {
	case "onesignal":
		return &oneSignalNotifier{
			appID:   cfg.AppID,
			apiKey:  cfg.APIKey,
			client:  &http.Client{Timeout: 10 * time.Second},
			baseURL: "https://onesignal.com/api/v1",
		}
	case "noop":
		return &noopNotifier{logger: logger}
	default:
		logger.Warn("unknown push provider, using noop", "provider", cfg.Provider)
		return &noopNotifier{logger: logger}
	}
}

type oneSignalNotifier struct {
	appID   string
	apiKey  string
	client  *http.Client
	baseURL string
}

type oneSignalRequest struct {
	AppID           string            `json:"app_id"`
	Contents        map[string]string `json:"contents"`
	Headings        map[string]string `json:"headings,omitempty"`
	ExternalUserIDs []string          `json:"include_external_user_ids"`
	Data            map[string]string `json:"data,omitempty"`
}

func (n *oneSignalNotifier) Send(ctx context.Context, notif domain.Notification) error {
	if notif.RecipientID == "" {
		return fmt.Errorf("notification recipient is required")
	}
	reqBody := oneSignalRequest{
		AppID:           n.appID,
		Contents:        map[string]string{"en": notif.Message},
		ExternalUserIDs: []string{notif.RecipientID},
		Data:            notif.DeepLink.EncodePayload(),
	}
	if notif.Title != "" {
		reqBody.Headings = map[string]string{"en": notif.Title}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/notifications", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("onesignal: status %d: %s", resp.StatusCode, body)
	}
	return nil
}

type noopNotifier struct {
	logger *slog.Logger
}

func (n *noopNotifier) Send(ctx context.Context, notif domain.Notification) error {
	n.logger.Debug("push notification would be sent (noop)",
		"recipient", notif.RecipientID, "message", notif.Message)
	return nil
}
