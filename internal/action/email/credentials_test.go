package email_test

import (
	"crypto/tls"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RedouaeElalami/chutney/internal/action/email"
)

func TestResolveCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  email.ResolvedConfig
		want email.Credentials
	}{
		{
			name: "app password dominates password",
			cfg:  email.ResolvedConfig{Username: "u", Password: "p", AppPassword: "app"},
			want: email.Credentials{Method: email.AuthAppPassword, Username: "u", Secret: "app"},
		},
		{
			name: "app password alone",
			cfg:  email.ResolvedConfig{Username: "u", AppPassword: "app"},
			want: email.Credentials{Method: email.AuthAppPassword, Username: "u", Secret: "app"},
		},
		{
			name: "username and password",
			cfg:  email.ResolvedConfig{Username: "u", Password: "p"},
			want: email.Credentials{Method: email.AuthPassword, Username: "u", Secret: "p"},
		},
		{
			name: "username without password",
			cfg:  email.ResolvedConfig{Username: "u"},
			want: email.Credentials{Method: email.AuthNone},
		},
		{
			name: "password without username",
			cfg:  email.ResolvedConfig{Password: "p"},
			want: email.Credentials{Method: email.AuthNone},
		},
		{
			name: "nothing",
			cfg:  email.ResolvedConfig{},
			want: email.Credentials{Method: email.AuthNone},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := email.ResolveCredentials(tt.cfg)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Method != email.AuthNone, got.Valid())
		})
	}
}

func TestAuthMethod_String(t *testing.T) {
	assert.Equal(t, "app-password", email.AuthAppPassword.String())
	assert.Equal(t, "password", email.AuthPassword.String())
	assert.Equal(t, "none", email.AuthNone.String())
}

func TestProviders_Lookup(t *testing.T) {
	p := email.DefaultProviders()

	assert.Equal(t, "smtp.gmail.com", p.Lookup("GMail").TrustedHost)
	outlook := p.Lookup(" outlook ")
	assert.Equal(t, "smtp.office365.com", outlook.TrustedHost)
	assert.Equal(t, uint16(tls.VersionTLS12), outlook.MinTLSVersion)
	assert.Equal(t, email.Provider{}, p.Lookup("other"))
	assert.Equal(t, email.Provider{}, p.Lookup(""))
}

func TestProviders_With(t *testing.T) {
	merged := email.DefaultProviders().With(email.Providers{
		"Gmail":    {TrustedHost: "smtp-relay.gmail.com"},
		"fastmail": {TrustedHost: "smtp.fastmail.com"},
	})

	assert.Equal(t, "smtp-relay.gmail.com", merged.Lookup("gmail").TrustedHost)
	assert.Equal(t, "smtp.fastmail.com", merged.Lookup("FASTMAIL").TrustedHost)
	assert.Equal(t, "smtp.office365.com", merged.Lookup("outlook").TrustedHost)
}

func TestParseTLSVersion(t *testing.T) {
	v, ok := email.ParseTLSVersion("TLSv1.2")
	assert.True(t, ok)
	assert.Equal(t, uint16(tls.VersionTLS12), v)

	v, ok = email.ParseTLSVersion("")
	assert.True(t, ok)
	assert.Zero(t, v)

	_, ok = email.ParseTLSVersion("SSLv3")
	assert.False(t, ok)
}
