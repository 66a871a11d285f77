package mailer

import (
	"context"
	"errors"
	"strings"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// sandboxSignals are fragments of the provider's rejection for accounts
// without a verified sending domain.
var sandboxSignals = []string{
	"testing emails",
	"verify a domain",
	"own email address",
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	logger *zap.Logger
}

func NewResendSender(apiKey string, logger *zap.Logger) *ResendSender {
	return NewResendSenderWithClient(resend.NewClient(apiKey), logger)
}

func NewResendSenderWithClient(client *resend.Client, logger *zap.Logger) *ResendSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendSender{client: client, logger: logger}
}

func (s *ResendSender) Send(ctx context.Context, m Message) (string, error) {
	if err := validate(m); err != nil {
		return "", err
	}

	req := &resend.SendEmailRequest{
		From:    m.From,
		To:      m.To,
		Subject: m.Subject,
		Html:    m.HTML,
		ReplyTo: m.ReplyTo,
	}
	for _, a := range m.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Content:     a.Content,
			Filename:    a.Filename,
			ContentType: a.ContentType,
		})
	}

	resp, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		se := classify(err)
		s.logger.Warn("resend rejected message",
			zap.Strings("to", m.To),
			zap.Stringer("kind", se.Kind),
			zap.Error(err),
		)
		return "", se
	}
	s.logger.Debug("resend accepted message", zap.String("id", resp.Id), zap.Strings("to", m.To))
	return resp.Id, nil
}

func classify(err error) *SendError {
	var se *SendError
	if errors.As(err, &se) {
		return se
	}
	msg := strings.ToLower(err.Error())
	for _, signal := range sandboxSignals {
		if strings.Contains(msg, signal) {
			return &SendError{Kind: KindSandboxRejected, Err: err}
		}
	}
	return &SendError{Kind: KindSendFailed, Err: err}
}
