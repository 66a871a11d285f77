// Package mailer sends transactional email through a provider gateway.
package mailer

import (
	"context"
	"errors"
	"fmt"
)

// Attachment is a file carried by a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outgoing email.
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	ReplyTo     string
	Attachments []Attachment
}

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, m Message) (string, error)
}

// ErrorKind classifies a delivery failure.
type ErrorKind int

const (
	// KindSendFailed is any failure other than a sandbox rejection.
	KindSendFailed ErrorKind = iota
	// KindSandboxRejected means the sending account may only deliver to
	// verified addresses.
	KindSandboxRejected
)

func (k ErrorKind) String() string {
	switch k {
	case KindSandboxRejected:
		return "sandbox_rejected"
	default:
		return "send_failed"
	}
}

// SendError is returned by every Sender on failure.
type SendError struct {
	Kind ErrorKind
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send email (%s): %v", e.Kind, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// IsSandboxRejected reports whether err is a sandbox rejection.
func IsSandboxRejected(err error) bool {
	var se *SendError
	return errors.As(err, &se) && se.Kind == KindSandboxRejected
}

func validate(m Message) error {
	if m.From == "" {
		return &SendError{Kind: KindSendFailed, Err: errors.New("missing sender address")}
	}
	if len(m.To) == 0 {
		return &SendError{Kind: KindSendFailed, Err: errors.New("missing recipient")}
	}
	return nil
}
