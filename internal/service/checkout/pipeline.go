// Package checkout runs the order submission pipeline: persist the order,
// render its invoice, email it and record the outcome.
//
// Persistence is the only step allowed to fail a submission. Every later
// failure is reported on the Result and, when a retry queue is configured,
// scheduled for redelivery.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"batipro/internal/domain"
	"batipro/internal/format"
	"batipro/internal/invoice"
	"batipro/internal/mailer"
	"go.uber.org/zap"
)

// State is a step of the pipeline, used for logging and on Result.
type State string

const (
	StateReceived              State = "received"
	StatePersisted             State = "persisted"
	StateInvoiceGenerated      State = "invoice_generated"
	StateEmailAttempted        State = "email_attempted"
	StateEmailSent             State = "email_sent"
	StateEmailFailed           State = "email_failed"
	StateStatusUpdateAttempted State = "status_update_attempted"
	StateDone                  State = "done"
)

const (
	msgConfirmed = "Commande confirmée. Votre facture vous a été envoyée par email."
	msgTestMode  = "Commande confirmée. Votre facture sera transmise par notre service client."
	msgDegraded  = "Commande confirmée. L'envoi de votre facture est retardé, notre équipe vous la fera parvenir."
	msgReplay    = "Commande déjà enregistrée."
)

// OrderStore is the persistence the pipeline needs.
type OrderStore interface {
	Create(ctx context.Context, o domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	MarkInvoiced(ctx context.Context, id string, u domain.InvoiceUpdate) error
}

// Renderer turns an invoice into a document.
type Renderer interface {
	Render(ctx context.Context, inv invoice.Invoice) ([]byte, error)
}

// Numberer issues invoice numbers.
type Numberer interface {
	Next() string
}

// RetryScheduler queues an order for a later redelivery attempt.
type RetryScheduler interface {
	Schedule(ctx context.Context, orderID, reason string) error
}

// Config carries the mail settings and the text used in email bodies.
type Config struct {
	From          string
	ReplyTo       string
	TestRecipient string
	CompanyName   string
	ContactEmail  string
	// MailTimeout bounds each send; zero leaves it to the mail client.
	MailTimeout time.Duration
}

type Deps struct {
	Orders    OrderStore
	Renderer  Renderer
	Mailer    mailer.Sender
	Numbers   Numberer
	Retry     RetryScheduler
	Formatter *format.Formatter
	Logger    *zap.Logger
	Now       func() time.Time
}

// Result is what the storefront learns about a submission.
type Result struct {
	Success       bool   `json:"success"`
	OrderID       string `json:"orderId"`
	EmailSent     bool   `json:"emailSent"`
	TestMode      bool   `json:"testMode"`
	InvoiceNumber string `json:"invoiceNumber,omitempty"`
	Message       string `json:"message"`
	Replayed      bool   `json:"replayed,omitempty"`
	State         State  `json:"-"`
}

type Pipeline struct {
	cfg Config
	d   Deps
}

func New(cfg Config, d Deps) *Pipeline {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Numbers == nil {
		d.Numbers = invoice.NewNumberGenerator(invoice.DefaultPrefix)
	}
	return &Pipeline{cfg: cfg, d: d}
}

// Submit validates and persists the order, then delivers its invoice.
// An error is returned only when the order was not saved.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	now := p.d.Now().UTC()
	o, err := buildOrder(req, now, NewOrderID)
	if err != nil {
		p.d.Logger.Info("order rejected", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}
	log := p.d.Logger.With(zap.String("order_id", o.ID))
	log.Info("order pipeline", zap.String("state", string(StateReceived)), zap.Int("items", len(o.Items)))

	if err := p.d.Orders.Create(ctx, o); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return p.replay(ctx, log, o)
		}
		log.Error("order not persisted", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	log.Info("order pipeline", zap.String("state", string(StatePersisted)))

	return p.deliver(ctx, log, o, req.ShippingAddress, true), nil
}

// replay answers a resubmission of an already stored order without sending
// a second invoice.
func (p *Pipeline) replay(ctx context.Context, log *zap.Logger, o domain.Order) (*Result, error) {
	existing, err := p.d.Orders.Get(ctx, o.ID)
	if err != nil {
		log.Error("load duplicate order", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !strings.EqualFold(existing.CustomerEmail, o.CustomerEmail) {
		log.Warn("order id reused by another customer")
		return nil, fmt.Errorf("%w: %s", ErrConflict, o.ID)
	}
	log.Info("order pipeline replay", zap.Bool("invoiced", existing.InvoiceSentAt != nil))
	return &Result{
		Success:       true,
		OrderID:       existing.ID,
		EmailSent:     existing.InvoiceSentAt != nil,
		InvoiceNumber: existing.InvoiceNumber,
		Message:       msgReplay,
		Replayed:      true,
		State:         StateDone,
	}, nil
}

// Redeliver renders and sends the invoice of a stored order again.
func (p *Pipeline) Redeliver(ctx context.Context, orderID string) (*Result, error) {
	o, err := p.d.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	log := p.d.Logger.With(zap.String("order_id", o.ID), zap.Bool("redelivery", true))
	res := p.deliver(ctx, log, *o, nil, false)
	if !res.EmailSent {
		return res, fmt.Errorf("%w: order %s", ErrNotDelivered, o.ID)
	}
	return res, nil
}

// RenderInvoice renders the invoice of a stored order. The recorded invoice
// number is reused when the order was already invoiced.
func (p *Pipeline) RenderInvoice(ctx context.Context, orderID string) (string, []byte, error) {
	o, err := p.d.Orders.Get(ctx, orderID)
	if err != nil {
		return "", nil, err
	}
	number := o.InvoiceNumber
	if number == "" {
		number = p.d.Numbers.Next()
	}
	pdf, err := p.d.Renderer.Render(ctx, invoice.FromOrder(*o, number))
	if err != nil {
		return "", nil, err
	}
	return number, pdf, nil
}

func (p *Pipeline) deliver(ctx context.Context, log *zap.Logger, o domain.Order, fallback *domain.Address, schedule bool) *Result {
	res := &Result{Success: true, OrderID: o.ID, Message: msgDegraded}
	if o.ShippingAddress.Blank() && !fallback.Blank() {
		o.ShippingAddress = fallback
	}

	number := o.InvoiceNumber
	if number == "" {
		number = p.d.Numbers.Next()
	}
	log = log.With(zap.String("invoice_number", number))
	pdf, err := p.d.Renderer.Render(ctx, invoice.FromOrder(o, number))
	if err != nil {
		log.Error("invoice not rendered", zap.Error(err))
		return p.degrade(ctx, log, res, StateInvoiceGenerated, "render: "+err.Error(), schedule)
	}
	log.Info("order pipeline", zap.String("state", string(StateInvoiceGenerated)), zap.Int("pdf_bytes", len(pdf)))

	data := p.emailData(o, number)
	subject, body, err := mailer.InvoiceEmail(data)
	if err != nil {
		log.Error("invoice email not built", zap.Error(err))
		return p.degrade(ctx, log, res, StateInvoiceGenerated, "email body: "+err.Error(), schedule)
	}
	msg := mailer.Message{
		From:    p.cfg.From,
		To:      []string{o.CustomerEmail},
		Subject: subject,
		HTML:    body,
		ReplyTo: p.cfg.ReplyTo,
		Attachments: []mailer.Attachment{{
			Filename:    "facture-" + number + ".pdf",
			ContentType: "application/pdf",
			Content:     pdf,
		}},
	}

	log.Info("order pipeline", zap.String("state", string(StateEmailAttempted)))
	_, err = p.send(ctx, msg)
	if mailer.IsSandboxRejected(err) && p.canFallback(o.CustomerEmail) {
		log.Warn("mail account sandboxed, sending to test recipient", zap.String("test_recipient", p.cfg.TestRecipient))
		subject, body, terr := mailer.SandboxEmail(data, o.CustomerEmail)
		if terr != nil {
			err = terr
		} else {
			msg.To = []string{p.cfg.TestRecipient}
			msg.Subject = subject
			msg.HTML = body
			if _, err = p.send(ctx, msg); err == nil {
				res.TestMode = true
			}
		}
	}
	if err != nil {
		log.Error("invoice email not sent", zap.String("state", string(StateEmailFailed)), zap.Error(err))
		return p.degrade(ctx, log, res, StateEmailFailed, "send: "+err.Error(), schedule)
	}
	log.Info("order pipeline", zap.String("state", string(StateEmailSent)), zap.Bool("test_mode", res.TestMode))
	res.EmailSent = true
	res.InvoiceNumber = number
	res.Message = msgConfirmed
	if res.TestMode {
		res.Message = msgTestMode
	}

	// Only a pending order advances; resending never rewinds fulfilment.
	status := o.Status
	if status == "" || status == domain.OrderPending {
		status = domain.OrderPaid
	}
	update := domain.InvoiceUpdate{
		Status:        status,
		PaymentStatus: domain.PaymentPaid,
		InvoiceNumber: number,
		SentAt:        p.d.Now().UTC(),
	}
	log.Info("order pipeline", zap.String("state", string(StateStatusUpdateAttempted)))
	if err := p.d.Orders.MarkInvoiced(ctx, o.ID, update); err != nil {
		log.Warn("order status not updated after invoice email", zap.Error(err))
	}

	res.State = StateDone
	log.Info("order pipeline", zap.String("state", string(StateDone)))
	return res
}

func (p *Pipeline) send(ctx context.Context, msg mailer.Message) (string, error) {
	if p.cfg.MailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.MailTimeout)
		defer cancel()
	}
	return p.d.Mailer.Send(ctx, msg)
}

func (p *Pipeline) canFallback(recipient string) bool {
	return p.cfg.TestRecipient != "" && !strings.EqualFold(p.cfg.TestRecipient, recipient)
}

func (p *Pipeline) degrade(ctx context.Context, log *zap.Logger, res *Result, state State, reason string, schedule bool) *Result {
	res.State = state
	if !schedule || p.d.Retry == nil {
		return res
	}
	if err := p.d.Retry.Schedule(ctx, res.OrderID, reason); err != nil {
		log.Error("invoice redelivery not scheduled", zap.Error(err))
		return res
	}
	log.Info("invoice redelivery scheduled")
	return res
}

func (p *Pipeline) emailData(o domain.Order, number string) mailer.InvoiceEmailData {
	d := mailer.InvoiceEmailData{
		CompanyName:   p.cfg.CompanyName,
		CustomerName:  o.CustomerName,
		OrderID:       o.ID,
		InvoiceNumber: number,
		Total:         o.Total.StringFixed(2),
		ContactEmail:  p.cfg.ContactEmail,
	}
	if f := p.d.Formatter; f != nil {
		d.Total = f.Currency(o.Total)
		if date, err := f.Date(o.CreatedAt); err == nil {
			d.OrderDate = date
		}
	}
	return d
}
