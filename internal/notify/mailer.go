package notify

import (
	"context"
	"log/slog"
	"strings"
)

// LogMailer пишет письма в лог вместо отправки. Используется, пока не
// подключен настоящий SMTP-транспорт.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Outgoing mail",
		"from", msg.From,
		"to", strings.Join(msg.To, ","),
		"subject", msg.Subject,
		"body", msg.Body,
		"has_html", msg.HTMLBody != "")
	return nil
}
