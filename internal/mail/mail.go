// Package mail delivers signed agreements over SMTP.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"engagement/internal/domain"
	u "engagement/internal/utils"
)

// Message is one agreement to deliver.
type Message struct {
	To             string
	Attachment     []byte
	AttachmentName string
}

// Mailer sends a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through an SMTP relay, copying the association mailbox
// on every message.
type SMTPMailer struct {
	cfg  u.MailConfig
	opts []gomail.Option
}

// NewSMTPMailer validates cfg and prepares the client options. No
// connection is opened until Send.
func NewSMTPMailer(cfg u.MailConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail host is empty")
	}
	if cfg.From == "" {
		return nil, errors.New("mail sender is empty")
	}

	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	switch strings.ToLower(cfg.TLSPolicy) {
	case "ssl":
		opts = append(opts, gomail.WithSSL())
	case "none":
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	case "opportunistic":
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	case "", "mandatory":
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		return nil, fmt.Errorf("unknown mail tls policy %q", cfg.TLSPolicy)
	}

	return &SMTPMailer{cfg: cfg, opts: opts}, nil
}

// Send delivers msg. Every failure wraps domain.ErrDelivery.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	gm, err := buildMessage(m.cfg, msg)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}

	// A client per message: go-mail clients hold one connection.
	client, err := gomail.NewClient(m.cfg.Host, m.opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}
	if err := client.DialAndSendWithContext(ctx, gm); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
	}
	return nil
}

func buildMessage(cfg u.MailConfig, msg Message) (*gomail.Msg, error) {
	gm := gomail.NewMsg()
	if err := gm.From(cfg.From); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := gm.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	if cfg.Association != "" && !strings.EqualFold(cfg.Association, msg.To) {
		if err := gm.Cc(cfg.Association); err != nil {
			return nil, fmt.Errorf("association address: %w", err)
		}
	}
	gm.Subject(cfg.Subject)
	gm.SetBodyString(gomail.TypeTextPlain, cfg.Body)

	name := msg.AttachmentName
	if name == "" {
		name = cfg.AttachmentName
	}
	if err := gm.AttachReader(name, bytes.NewReader(msg.Attachment),
		gomail.WithFileContentType(gomail.ContentType("application/pdf"))); err != nil {
		return nil, fmt.Errorf("attachment: %w", err)
	}
	return gm, nil
}
