package notify

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/creski-storefront/internal/config"
	"github.com/DanielPopoola/creski-storefront/internal/domain"
	"github.com/wneessen/go-mail"
)

type Email struct {
	To      []string
	Subject string
	HTML    string
}

// MailSender delivers a composed email.
type MailSender interface {
	Send(ctx context.Context, email Email) error
}

// SMTPSender dials the configured relay once per email.
type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, email Email) error {
	msg, err := buildMessage(s.cfg, email)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.User),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func buildMessage(cfg config.SMTPConfig, email Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(cfg.SenderName, cfg.Sender); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.HTML)
	return msg, nil
}

// OwnerEmail tells the shop owner about a paid order.
type OwnerEmail struct {
	cfg    config.SMTPConfig
	sender MailSender
}

func NewOwnerEmail(cfg config.SMTPConfig, sender MailSender) *OwnerEmail {
	return &OwnerEmail{cfg: cfg, sender: sender}
}

func (c *OwnerEmail) Name() string { return "owner_email" }

func (c *OwnerEmail) Send(ctx context.Context, ev domain.NotificationEvent) (Delivery, error) {
	if err := c.cfg.ValidateOwner(); err != nil {
		return Delivery{}, err
	}

	body, err := render("owner_email", eventView(ev))
	if err != nil {
		return Delivery{}, err
	}

	return Delivery{}, c.sender.Send(ctx, Email{
		To:      []string{c.cfg.OwnerEmail},
		Subject: fmt.Sprintf("New Order Received from %s - #%s", ev.Customer.Name, ev.ShortPaymentID()),
		HTML:    body,
	})
}

// CustomerEmail confirms the order to the buyer and, later, the shipment.
type CustomerEmail struct {
	cfg    config.SMTPConfig
	sender MailSender
}

func NewCustomerEmail(cfg config.SMTPConfig, sender MailSender) *CustomerEmail {
	return &CustomerEmail{cfg: cfg, sender: sender}
}

func (c *CustomerEmail) Name() string { return "customer_email" }

func (c *CustomerEmail) Send(ctx context.Context, ev domain.NotificationEvent) (Delivery, error) {
	if err := c.cfg.Validate(); err != nil {
		return Delivery{}, err
	}

	body, err := render("customer_email", eventView(ev))
	if err != nil {
		return Delivery{}, err
	}

	return Delivery{}, c.sender.Send(ctx, Email{
		To:      []string{ev.Customer.Email},
		Subject: fmt.Sprintf("Order Confirmation - #%s", ev.PaymentID),
		HTML:    body,
	})
}

func (c *CustomerEmail) SendShipped(ctx context.Context, rec *domain.OrderRecord) error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	view := recordView(rec)
	body, err := render("shipped_email", view)
	if err != nil {
		return err
	}

	return c.sender.Send(ctx, Email{
		To:      []string{rec.Customer.Email},
		Subject: fmt.Sprintf("Your CRESKI order has shipped - #%s", view.ShortPaymentID),
		HTML:    body,
	})
}
