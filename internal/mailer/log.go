package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes mail to the log instead of sending it. Used in development
// when SMTP is not configured; the login code shows up in the server log.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a log-only mailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendLoginCode(ctx context.Context, to, code string) error {
	m.logger.Info("login code (mail not sent, SMTP unconfigured)",
		zap.String("to", to),
		zap.String("code", code))
	return nil
}

func (m *LogMailer) SendModerationAlert(ctx context.Context, to, subject, body string) error {
	m.logger.Info("moderation alert (mail not sent, SMTP unconfigured)",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
