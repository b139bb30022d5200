package mailer

import (
	"context"

	"github.com/nkiryanov/eshop/internal/logger"
)

// LogSender writes messages to log instead of sending
// Used when SMTP is not configured, e.g. on local machine
type LogSender struct {
	logger logger.Logger
}

func NewLogSender(l logger.Logger) *LogSender {
	return &LogSender{logger: l.WithGroup("mail")}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("Mail not sent, smtp is not configured",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}
