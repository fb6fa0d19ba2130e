package notification

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"maillot-be/internal/logger"

	"go.uber.org/zap"
)

const implicitTLSPort = "465"

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
}

// SMTPNotifier sends HTML mail through a single SMTP relay. Port 465 uses
// implicit TLS; any other port upgrades with STARTTLS when offered.
type SMTPNotifier struct {
	cfg       SMTPConfig
	tlsConfig *tls.Config
	now       func() time.Time
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:       cfg,
		tlsConfig: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		now:       time.Now,
	}
}

// From is the formatted sender, e.g. "YOURMAILLOT <shop@example.com>".
func (n *SMTPNotifier) From() string {
	return fmt.Sprintf("%s <%s>", n.cfg.FromName, n.cfg.Username)
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "notification"),
		zap.String("method", "SMTPSend"),
		zap.String("subject", msg.Subject),
	)

	if err := n.deliver(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}

	log.Debug("mail sent")
	return nil
}

func (n *SMTPNotifier) deliver(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)

	conn, err := n.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("handshake: %w", err)
	}
	defer c.Close()

	if n.cfg.Port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(n.tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if n.cfg.Username != "" && n.cfg.Password != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	if err := c.Mail(n.cfg.Username); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(n.buildMessage(msg)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return c.Quit()
}

func (n *SMTPNotifier) dial(ctx context.Context, addr string) (net.Conn, error) {
	d := &net.Dialer{}
	if n.cfg.Port == implicitTLSPort {
		td := &tls.Dialer{NetDialer: d, Config: n.tlsConfig}
		return td.DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

func (n *SMTPNotifier) buildMessage(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + n.From() + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + n.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
