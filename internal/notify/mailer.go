package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/sturgeonlabs/caviarwatch/internal/digest"
)

// Mailer delivers a rendered digest. A failed send never fails the run;
// callers log the error and keep the digest on disk.
type Mailer interface {
	SendDigest(ctx context.Context, d *digest.Digest) error
}

// SMTPConfig holds delivery settings for the SMTP mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// SMTPMailer sends digests over implicit-TLS SMTP.
type SMTPMailer struct {
	addr   string
	host   string
	from   string
	to     string
	auth   smtp.Auth
	tlsCfg *tls.Config
}

// NewSMTPMailer validates config and builds a mailer. No connection is
// made until SendDigest.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	host := strings.TrimSpace(cfg.Host)
	from := strings.TrimSpace(cfg.From)
	to := strings.TrimSpace(strings.ToLower(cfg.To))
	if host == "" {
		return nil, errors.New("mailer: host is required")
	}
	if from == "" {
		return nil, errors.New("mailer: from address is required")
	}
	if to == "" {
		return nil, errors.New("mailer: recipient address is required")
	}
	port := cfg.Port
	if port <= 0 {
		port = 465
	}

	var auth smtp.Auth
	if strings.TrimSpace(cfg.Username) != "" && strings.TrimSpace(cfg.Password) != "" {
		auth = smtp.PlainAuth("", strings.TrimSpace(cfg.Username), strings.TrimSpace(cfg.Password), host)
	}

	return &SMTPMailer{
		addr:   net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		host:   host,
		from:   from,
		to:     to,
		auth:   auth,
		tlsCfg: &tls.Config{ServerName: host},
	}, nil
}

// SendDigest renders the digest and delivers it. An empty digest still
// sends, carrying the "no listings found" body.
func (m *SMTPMailer) SendDigest(ctx context.Context, d *digest.Digest) error {
	if m == nil {
		return errors.New("mailer: smtp mailer is nil")
	}
	if d == nil {
		return errors.New("mailer: digest payload is required")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	body, err := RenderHTML(d)
	if err != nil {
		return err
	}

	headers := []string{
		"From: " + m.from,
		"To: " + m.to,
		"Subject: " + Subject(d),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
	}
	var msgBuilder strings.Builder
	for _, h := range headers {
		msgBuilder.WriteString(h)
		msgBuilder.WriteString("\r\n")
	}
	msgBuilder.WriteString("\r\n")
	msgBuilder.WriteString(body)
	message := []byte(msgBuilder.String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.send(message)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (m *SMTPMailer) send(message []byte) error {
	conn, err := tls.Dial("tcp", m.addr, m.tlsCfg)
	if err != nil {
		return fmt.Errorf("mailer: dial smtp: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("mailer: create smtp client: %w", err)
	}
	defer client.Close()

	if m.auth != nil {
		if err := client.Auth(m.auth); err != nil {
			return fmt.Errorf("mailer: authenticate: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("mailer: set from: %w", err)
	}
	if err := client.Rcpt(m.to); err != nil {
		return fmt.Errorf("mailer: set recipient: %w", err)
	}
	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("mailer: get data writer: %w", err)
	}
	if _, err := wc.Write(message); err != nil {
		wc.Close()
		return fmt.Errorf("mailer: write message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("mailer: close writer: %w", err)
	}
	return client.Quit()
}
