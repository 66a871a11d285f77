package mailer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, m Message) (string, error) {
	if err := validate(m); err != nil {
		return "", err
	}
	id := "log-" + uuid.NewString()
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		names = append(names, a.Filename)
	}
	logger.Info("email not delivered (log sender)",
		zap.String("id", id),
		zap.Strings("to", m.To),
		zap.String("subject", m.Subject),
		zap.Strings("attachments", names),
	)
	return id, nil
}
