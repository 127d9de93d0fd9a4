// Package notify sends Telegram messages to subjects and operators.
// The gate only needs sendMessage, so it talks to the Bot API directly
// instead of pulling in a full bot framework.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adflow/filegate/pkg/slogx"
)

// Telegram is a minimal Bot API client. Notifications are best-effort:
// a subject whose chat is unreachable still gets their access window,
// so callers treat errors as log-and-continue.
type Telegram struct {
	BotToken   string
	APIBase    string // overridable for tests
	HTTPClient *http.Client
}

// NewTelegram returns a client for the given bot token.
func NewTelegram(botToken string) *Telegram {
	return &Telegram{
		BotToken:   botToken,
		APIBase:    "https://api.telegram.org",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendMessage delivers text to the given chat.
func (t *Telegram) SendMessage(ctx context.Context, chatID, text string) error {
	form := url.Values{}
	form.Set("chat_id", chatID)
	form.Set("text", text)

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, t.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telegram sendMessage: status %d", resp.StatusCode)
	}
	return nil
}

// NotifyAccessGranted tells the subject their token was verified.
func (t *Telegram) NotifyAccessGranted(ctx context.Context, subjectID string, window time.Duration) {
	log := slogx.FromContext(ctx)

	text := fmt.Sprintf("Token verified. Access active for %s.", formatWindow(window))
	if err := t.SendMessage(ctx, subjectID, text); err != nil {
		log.Warn("failed to notify subject of granted access",
			"subject_id", subjectID, "err", err)
	}
}

// NotifyAdmin pings the operator chat about an activation.
func (t *Telegram) NotifyAdmin(ctx context.Context, adminChatID, subjectID string) {
	log := slogx.FromContext(ctx)

	text := fmt.Sprintf("Token activated by %s", subjectID)
	if err := t.SendMessage(ctx, adminChatID, text); err != nil {
		log.Warn("failed to notify admin chat", "err", err)
	}
}

func formatWindow(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	return d.String()
}
