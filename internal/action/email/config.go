package email

import (
	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/target"
)

// PropertyKeys names the target properties an action reads its overrides from.
type PropertyKeys struct {
	Host        string
	Port        string
	TLS         string
	SSL         string
	AppPassword string
}

// SMTPKeys are the property keys under the "smtp" namespace.
var SMTPKeys = PropertyKeys{
	Host:        "smtp.host",
	Port:        "smtp.port",
	TLS:         "smtp.tls",
	SSL:         "smtp.ssl",
	AppPassword: "smtp.appPassword",
}

// Opportunistic STARTTLS by default; implicit TLS needs an explicit opt-in.
const (
	defaultUseTLS = true
	defaultUseSSL = false
)

// Overrides are the per-action inputs that win over everything the target says.
// A nil field means the action did not supply it.
type Overrides struct {
	Host        *string
	Port        *int
	Username    *string
	Password    *string
	AppPassword *string
	UseTLS      *bool
	UseSSL      *bool
}

// ResolvedConfig is the effective connection configuration of one invocation.
// It is a comparable value: two resolutions of the same target are ==.
type ResolvedConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	AppPassword string
	UseTLS      bool
	UseSSL      bool
}

// Resolve merges overrides, namespaced target properties and the target's
// base fields, in that order of precedence. A property that does not parse
// as the declared type is a ConfigurationError.
func Resolve(t target.Target, keys PropertyKeys, o Overrides) (ResolvedConfig, error) {
	cfg := ResolvedConfig{
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.UserPassword,
		UseTLS:   defaultUseTLS,
		UseSSL:   defaultUseSSL,
	}

	if v, ok := t.Property(keys.Host); ok {
		cfg.Host = v
	}
	port, ok, err := t.NumericProperty(keys.Port)
	if err != nil {
		return ResolvedConfig{}, &action.ConfigurationError{Key: keys.Port, Err: err}
	}
	if ok {
		cfg.Port = port
	}
	tls, ok, err := t.BooleanProperty(keys.TLS)
	if err != nil {
		return ResolvedConfig{}, &action.ConfigurationError{Key: keys.TLS, Err: err}
	}
	if ok {
		cfg.UseTLS = tls
	}
	ssl, ok, err := t.BooleanProperty(keys.SSL)
	if err != nil {
		return ResolvedConfig{}, &action.ConfigurationError{Key: keys.SSL, Err: err}
	}
	if ok {
		cfg.UseSSL = ssl
	}
	if v, ok := t.Property(keys.AppPassword); ok {
		cfg.AppPassword = v
	}

	applyOverrides(&cfg, o)
	return cfg, nil
}

func applyOverrides(cfg *ResolvedConfig, o Overrides) {
	if o.Host != nil {
		cfg.Host = *o.Host
	}
	if o.Port != nil {
		cfg.Port = *o.Port
	}
	if o.Username != nil {
		cfg.Username = *o.Username
	}
	if o.Password != nil {
		cfg.Password = *o.Password
	}
	if o.AppPassword != nil {
		cfg.AppPassword = *o.AppPassword
	}
	if o.UseTLS != nil {
		cfg.UseTLS = *o.UseTLS
	}
	if o.UseSSL != nil {
		cfg.UseSSL = *o.UseSSL
	}
}
