package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chris/chronos/internal/logger"
)

// KeyDMUser holds the Discord user id of whoever last DMed the bot.
const KeyDMUser = "discord_user_id"

type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// DMSender sends a Discord direct message.
type DMSender func(userID, content string) error

// Dispatcher tries a DM to the last known user, then the webhook, then
// settles for a log line.
type Dispatcher struct {
	kv      KV
	dm      DMSender
	webhook string
	http    *http.Client
}

func NewDispatcher(kv KV, dm DMSender, webhookURL string) *Dispatcher {
	return &Dispatcher{
		kv:      kv,
		dm:      dm,
		webhook: webhookURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Dispatcher) Deliver(ctx context.Context, msg Message) error {
	content := fmt.Sprintf("**%s**\n%s", msg.Title, msg.Body)

	if d.dm != nil && d.kv != nil {
		userID, ok, err := d.kv.Get(ctx, KeyDMUser)
		switch {
		case err != nil:
			logger.Warn("looking up DM user", "err", err)
		case ok && userID != "":
			err := d.dm(userID, content)
			if err == nil {
				return nil
			}
			logger.Warn("DM send failed, falling back", "err", err)
		}
	}

	if d.webhook != "" {
		return d.postWebhook(ctx, content)
	}

	logger.Info("no delivery method available, logging reminder", "title", msg.Title, "body", msg.Body)
	return nil
}

func (d *Dispatcher) postWebhook(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
