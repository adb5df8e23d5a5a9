// Package notify tells the operator about published posts.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/pandausagies/postbot/internal/runner"
)

// maxMessageRunes keeps messages under Telegram's 4096 character limit.
const maxMessageRunes = 4000

type telegramSendMessageFunc func(context.Context, *bot.SendMessageParams) (*models.Message, error)

// Telegram sends a short run summary to one chat.
type Telegram struct {
	token  string
	chatID int64

	mu          sync.Mutex
	sendMessage telegramSendMessageFunc
}

// NewTelegram returns a notifier for chatID. The bot is created on first use.
func NewTelegram(token string, chatID int64) *Telegram {
	return &Telegram{token: strings.TrimSpace(token), chatID: chatID}
}

// Notify sends the summary of a published run.
func (t *Telegram) Notify(ctx context.Context, report runner.Report) error {
	send, err := t.sender()
	if err != nil {
		return err
	}
	if _, err := send(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   FormatReport(report),
	}); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func (t *Telegram) sender() (telegramSendMessageFunc, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendMessage != nil {
		return t.sendMessage, nil
	}
	if t.token == "" {
		return nil, errors.New("telegram token is required")
	}
	b, err := bot.New(t.token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	t.sendMessage = b.SendMessage
	return t.sendMessage, nil
}

// FormatReport renders a plain-text run summary.
func FormatReport(report runner.Report) string {
	var b strings.Builder
	if report.Post != nil {
		fmt.Fprintf(&b, "posted %s\n", report.Post.URL)
	} else {
		b.WriteString("run finished without a post\n")
	}
	fmt.Fprintf(&b, "mode: %s", report.Mode)
	if report.Image != nil {
		fmt.Fprintf(&b, ", image: %s", report.Image.Source)
		if report.Post != nil && !report.Post.MediaAttached {
			b.WriteString(" (upload failed)")
		}
	}
	b.WriteString("\n")
	if report.Text != "" {
		b.WriteString("\n")
		b.WriteString(report.Text)
		b.WriteString("\n")
	}
	if len(report.Agents) > 0 {
		parts := make([]string, 0, len(report.Agents))
		for _, out := range report.Agents {
			parts = append(parts, fmt.Sprintf("%s=%d", out.Agent, out.Actions))
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "run %s", report.RunID)

	runes := []rune(b.String())
	if len(runes) > maxMessageRunes {
		return string(runes[:maxMessageRunes])
	}
	return string(runes)
}
