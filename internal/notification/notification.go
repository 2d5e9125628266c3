package notification

import (
	"context"
	"log/slog"
)

// Sender delivers email notifications to downstream systems.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// LoggerSender is a stub implementation that writes mail to the logger instead
// of delivering it. Used in development when no SMTP server is configured.
type LoggerSender struct {
	logger *slog.Logger
}

// NewLoggerSender constructs a logging mail stub.
func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

// Send writes the message to the structured logger.
func (s *LoggerSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("mail", "to", to, "subject", subject, "body", htmlBody)
	return nil
}
