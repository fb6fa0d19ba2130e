package notification

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type smtpSession struct {
	from string
	rcpt string
	data string
}

// startFakeSMTP accepts one plaintext session without extensions.
func startFakeSMTP(t *testing.T) (string, string, <-chan smtpSession) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan smtpSession, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		var s smtpSession
		_ = tp.PrintfLine("220 localhost ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			upper := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(upper, "MAIL FROM:"):
				s.from = line[len("MAIL FROM:"):]
				_ = tp.PrintfLine("250 OK")
			case strings.HasPrefix(upper, "RCPT TO:"):
				s.rcpt = line[len("RCPT TO:"):]
				_ = tp.PrintfLine("250 OK")
			case upper == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				s.data = strings.Join(lines, "\n")
				_ = tp.PrintfLine("250 OK")
			case upper == "QUIT":
				_ = tp.PrintfLine("221 bye")
				out <- s
				return
			default:
				_ = tp.PrintfLine("250 localhost")
			}
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	return host, port, out
}

func TestSMTPNotifier_Send(t *testing.T) {
	host, port, sessions := startFakeSMTP(t)

	n := NewSMTPNotifier(SMTPConfig{
		Host:     host,
		Port:     port,
		Username: "shop@example.com",
		FromName: "YOURMAILLOT",
	})
	n.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := n.Send(ctx, Message{To: "ana@example.com", Subject: SubjectCustomer, HTML: "<p>hi</p>"})
	require.NoError(t, err)

	select {
	case s := <-sessions:
		assert.Equal(t, "<shop@example.com>", s.from)
		assert.Equal(t, "<ana@example.com>", s.rcpt)
		assert.Contains(t, s.data, "From: YOURMAILLOT <shop@example.com>")
		assert.Contains(t, s.data, "Subject: Order Confirmation - YourMaillot")
		assert.Contains(t, s.data, "Content-Type: text/html")
		assert.Contains(t, s.data, "<p>hi</p>")
	case <-time.After(5 * time.Second):
		t.Fatal("smtp session not completed")
	}
}

func TestSMTPNotifier_NoRecipient(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "127.0.0.1", Port: "1"})
	err := n.Send(context.Background(), Message{Subject: "x"})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSMTPNotifier_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()

	n := NewSMTPNotifier(SMTPConfig{Host: host, Port: port, Username: "shop@example.com"})
	err = n.Send(context.Background(), Message{To: "ana@example.com"})
	assert.ErrorIs(t, err, ErrDelivery)
}

func TestSMTPNotifier_From(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Username: "shop@example.com", FromName: "YOURMAILLOT"})
	assert.Equal(t, "YOURMAILLOT <shop@example.com>", n.From())
}
