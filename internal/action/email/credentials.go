package email

import (
	"crypto/tls"
	"strings"
)

// AuthMethod is the authentication strategy presented to the transport.
type AuthMethod int

const (
	AuthNone AuthMethod = iota
	AuthAppPassword
	AuthPassword
)

func (m AuthMethod) String() string {
	switch m {
	case AuthAppPassword:
		return "app-password"
	case AuthPassword:
		return "password"
	default:
		return "none"
	}
}

// Credentials is the username/secret pair handed to the transport.
type Credentials struct {
	Method   AuthMethod
	Username string
	Secret   string
}

// Valid reports whether an authentication method was found.
func (c Credentials) Valid() bool { return c.Method != AuthNone }

// ResolveCredentials picks exactly one strategy: an app password always wins,
// then a username/password pair, otherwise none. Partial pairs are never used.
func ResolveCredentials(cfg ResolvedConfig) Credentials {
	switch {
	case cfg.AppPassword != "":
		return Credentials{Method: AuthAppPassword, Username: cfg.Username, Secret: cfg.AppPassword}
	case cfg.Username != "" && cfg.Password != "":
		return Credentials{Method: AuthPassword, Username: cfg.Username, Secret: cfg.Password}
	default:
		return Credentials{Method: AuthNone}
	}
}

// Provider holds the transport overrides applied for a known mail provider.
type Provider struct {
	TrustedHost   string `yaml:"trusted_host"`
	MinTLSVersion uint16 `yaml:"-"`
}

// Providers is a provider label to override table. Labels are matched
// case-insensitively.
type Providers map[string]Provider

// DefaultProviders returns the built-in table.
func DefaultProviders() Providers {
	return Providers{
		"gmail":   {TrustedHost: "smtp.gmail.com"},
		"outlook": {TrustedHost: "smtp.office365.com", MinTLSVersion: tls.VersionTLS12},
	}
}

// Lookup returns the overrides for label. Unknown or empty labels yield the
// zero Provider, which applies no override.
func (p Providers) Lookup(label string) Provider {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return Provider{}
	}
	for name, prov := range p {
		if strings.ToLower(name) == label {
			return prov
		}
	}
	return Provider{}
}

// With returns a copy of p extended with extra; extra wins on conflicts.
func (p Providers) With(extra Providers) Providers {
	out := make(Providers, len(p)+len(extra))
	for k, v := range p {
		out[strings.ToLower(k)] = v
	}
	for k, v := range extra {
		out[strings.ToLower(k)] = v
	}
	return out
}

// ParseTLSVersion maps "TLSv1.2" style labels to crypto/tls constants.
func ParseTLSVersion(s string) (uint16, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return 0, true
	case "TLSV1.0", "TLS1.0", "1.0":
		return tls.VersionTLS10, true
	case "TLSV1.1", "TLS1.1", "1.1":
		return tls.VersionTLS11, true
	case "TLSV1.2", "TLS1.2", "1.2":
		return tls.VersionTLS12, true
	case "TLSV1.3", "TLS1.3", "1.3":
		return tls.VersionTLS13, true
	}
	return 0, false
}
