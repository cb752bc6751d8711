package email

import (
	"context"
	"strings"

	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/target"
)

// SendEmailType is the registry key of SendEmailAction.
const SendEmailType = "send-email"

// SendEmailAction sends a message using explicitly supplied SMTP parameters.
// A target is optional; when given, its properties fill in whatever the
// inputs leave out. A provider label selects provider-specific transport
// overrides.
type SendEmailAction struct {
	to      string
	from    string
	subject string
	body    string
	sender  sender
}

// SendEmailInputs are the inputs the action reads.
type SendEmailInputs struct {
	To         string
	From       string
	Subject    string
	Body       string
	Provider   string
	Connection Overrides
}

// NewSendEmail resolves configuration once for this invocation.
func NewSendEmail(in SendEmailInputs, tgt *target.Target, transport Transport, providers Providers, logger action.Logger) (*SendEmailAction, error) {
	base := target.Target{}
	if tgt != nil {
		base = *tgt
	}
	cfg, err := Resolve(base, SMTPKeys, in.Connection)
	if err != nil {
		return nil, err
	}
	return &SendEmailAction{
		to:      in.To,
		from:    in.From,
		subject: in.Subject,
		body:    in.Body,
		sender: sender{
			name:      "email",
			transport: transport,
			logger:    loggerOrDefault(logger),
			config:    cfg,
			provider:  providers.Lookup(in.Provider),
		},
	}, nil
}

// SendEmailFactory builds SendEmailActions from raw invocation inputs.
func SendEmailFactory(transport Transport, providers Providers) action.Factory {
	return func(req action.Request) (action.Action, error) {
		in, err := parseSendEmailInputs(req.Inputs)
		if err != nil {
			return nil, err
		}
		return NewSendEmail(in, req.Target, transport, providers, req.Logger)
	}
}

func parseSendEmailInputs(raw action.Inputs) (SendEmailInputs, error) {
	port, err := raw.Int("smtpPort")
	if err != nil {
		return SendEmailInputs{}, err
	}
	useTLS, err := raw.Bool("useTls")
	if err != nil {
		return SendEmailInputs{}, err
	}
	useSSL, err := raw.Bool("useSsl")
	if err != nil {
		return SendEmailInputs{}, err
	}
	return SendEmailInputs{
		To:       raw.String("to"),
		From:     raw.String("from"),
		Subject:  raw.String("subject"),
		Body:     raw.String("body"),
		Provider: raw.String("provider"),
		Connection: Overrides{
			Host:        raw.OptionalString("smtpHost"),
			Port:        port,
			Username:    raw.OptionalString("username"),
			Password:    raw.OptionalString("password"),
			AppPassword: raw.OptionalString("appPassword"),
			UseTLS:      useTLS,
			UseSSL:      useSSL,
		},
	}, nil
}

func (a *SendEmailAction) Type() string { return SendEmailType }

// Config returns the resolved configuration of this invocation.
func (a *SendEmailAction) Config() ResolvedConfig { return a.sender.config }

func (a *SendEmailAction) ValidateInputs() []string {
	errs := validateRecipients(a.to)
	errs = append(errs, validateConnection(a.sender.config)...)
	return errs
}

func (a *SendEmailAction) Execute(ctx context.Context) action.Result {
	from := a.from
	if strings.TrimSpace(from) == "" {
		from = a.sender.config.Username
	}
	return a.sender.send(ctx, Message{
		From:    from,
		To:      splitRecipients(a.to),
		Subject: a.subject,
		Body:    a.body,
	})
}
