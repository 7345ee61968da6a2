package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

var ErrNotConfigured = errors.New("smtp not configured")

const (
	dialTimeout    = 10 * time.Second
	sessionTimeout = 30 * time.Second
)

// SMTPMailer sends through one relay. Port 465 uses implicit TLS; other
// ports rely on STARTTLS when the server offers it.
type SMTPMailer struct {
	Host string
	Port int
	User string
	Pass string
	// Timeout bounds the dial and the whole session when set.
	Timeout time.Duration

	now func() time.Time
}

func NewSMTPMailer(host string, port int, user, pass string) *SMTPMailer {
	if port == 0 {
		port = 587
	}
	return &SMTPMailer{Host: host, Port: port, User: user, Pass: pass, now: time.Now}
}

func (m *SMTPMailer) Configured() bool {
	return m != nil && m.Host != ""
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.Configured() {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return errors.New("smtp: no recipients")
	}
	raw, err := BuildMessage(msg, m.now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	var auth smtp.Auth
	if m.User != "" {
		auth = smtp.PlainAuth("", m.User, m.Pass, m.Host)
	}

	conn, err := m.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	// Closing the socket unblocks the session once ctx is done.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	deadline := time.Now().Add(m.timeout(sessionTimeout))
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if err := m.session(conn, auth, msg, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) timeout(def time.Duration) time.Duration {
	if m.Timeout > 0 {
		return m.Timeout
	}
	return def
}

func (m *SMTPMailer) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: m.Host, MinVersion: tls.VersionTLS12}
}

// dial opens the relay connection; port 465 is TLS from the first byte.
func (m *SMTPMailer) dial(ctx context.Context, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: m.timeout(dialTimeout)}
	if m.Port == 465 {
		return (&tls.Dialer{NetDialer: d, Config: m.tlsConfig()}).DialContext(ctx, "tcp", addr)
	}
	return d.DialContext(ctx, "tcp", addr)
}

// session runs one SMTP transaction over conn and always closes it.
func (m *SMTPMailer) session(conn net.Conn, auth smtp.Auth, msg Message, raw []byte) error {
	c, err := smtp.NewClient(conn, m.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if m.Port != 465 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(m.tlsConfig()); err != nil {
				return err
			}
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("server does not support AUTH")
		}
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(msg.From); err != nil {
		return err
	}
	for _, to := range msg.To {
		if err := c.Rcpt(to); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
