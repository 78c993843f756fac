package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/gomail.v2"
)

// SMTPConfig carries dialer options for the gomail gateway.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPGateway is the default NotificationGateway, delivering HTML mail over
// SMTP via gomail.
type SMTPGateway struct {
	cfg    SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPGateway creates a gateway for the given SMTP endpoint.
func NewSMTPGateway(cfg SMTPConfig) *SMTPGateway {
	return &SMTPGateway{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send implements NotificationGateway. gomail has no context support; the
// dialer's own timeouts bound the call.
func (g *SMTPGateway) Send(_ context.Context, to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", g.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := g.dialer.DialAndSend(m); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "smtp delivery failed").
			WithMetadata(map[string]any{"to": to})
	}

	return nil
}

var _ NotificationGateway = (*SMTPGateway)(nil)
