package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Message is passed through to the transport untouched.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// TransportConfig is the fully assembled connection configuration for one send.
type TransportConfig struct {
	Host        string
	Port        int
	UseTLS      bool
	UseSSL      bool
	Credentials Credentials
	Provider    Provider
}

// Transport sends one message. It returns a descriptive error on failure and
// never retries.
type Transport interface {
	Send(ctx context.Context, cfg TransportConfig, msg Message) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, cfg TransportConfig, msg Message) error

func (f TransportFunc) Send(ctx context.Context, cfg TransportConfig, msg Message) error {
	return f(ctx, cfg, msg)
}

// SMTPTransport delivers messages over SMTP.
type SMTPTransport struct {
	Timeout time.Duration
}

// NewSMTPTransport creates an SMTPTransport. A zero timeout keeps the client default.
func NewSMTPTransport(timeout time.Duration) *SMTPTransport {
	return &SMTPTransport{Timeout: timeout}
}

func (t *SMTPTransport) Send(ctx context.Context, cfg TransportConfig, msg Message) error {
	client, err := mail.NewClient(cfg.Host, t.clientOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return fmt.Errorf("invalid recipients %q: %w", strings.Join(msg.To, ","), err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return err
	}
	return nil
}

func (t *SMTPTransport) clientOptions(cfg TransportConfig) []mail.Option {
	tlsConfig := &tls.Config{ServerName: cfg.Host}
	if cfg.Provider.TrustedHost != "" {
		tlsConfig.ServerName = cfg.Provider.TrustedHost
	}
	if cfg.Provider.MinTLSVersion != 0 {
		tlsConfig.MinVersion = cfg.Provider.MinTLSVersion
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSConfig(tlsConfig),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Credentials.Username),
		mail.WithPassword(cfg.Credentials.Secret),
	}
	switch {
	case cfg.UseSSL:
		opts = append(opts, mail.WithSSL())
	case cfg.UseTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if t.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(t.Timeout))
	}
	return opts
}

// splitRecipients accepts a comma separated recipient list.
func splitRecipients(to string) []string {
	parts := strings.Split(to, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
