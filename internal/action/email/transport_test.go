package email

import (
	"crypto/tls"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestSplitRecipients(t *testing.T) {
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, splitRecipients(" a@x.io ,, b@x.io ,"))
	assert.Empty(t, splitRecipients(""))
}

func TestSMTPTransport_ClientOptionsBuildClient(t *testing.T) {
	tr := NewSMTPTransport(5 * time.Second)
	configs := []TransportConfig{
		{Host: "smtp.example.com", Port: 587, UseTLS: true},
		{Host: "smtp.example.com", Port: 465, UseSSL: true},
		{Host: "localhost", Port: 25},
		{
			Host:     "smtp.office365.com",
			Port:     587,
			UseTLS:   true,
			Provider: Provider{TrustedHost: "smtp.office365.com", MinTLSVersion: tls.VersionTLS12},
			Credentials: Credentials{
				Method:   AuthPassword,
				Username: "u@example.com",
				Secret:   "pw",
			},
		},
	}
	for _, cfg := range configs {
		_, err := mail.NewClient(cfg.Host, tr.clientOptions(cfg)...)
		require.NoError(t, err, cfg.Host)
	}
}
