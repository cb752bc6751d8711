package email

import (
	"context"

	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/target"
)

// SendMailType is the registry key of SendMailAction.
const SendMailType = "send-mail"

// SendMailAction sends a message using only what the target declares.
// No provider is inferred: the generic TLS/SSL flags are all it uses.
// The sender address is the resolved username.
type SendMailAction struct {
	to        string
	subject   string
	body      string
	hasTarget bool
	sender    sender
}

// NewSendMail resolves the target configuration once for this invocation.
// A nil target yields an action whose ValidateInputs reports it.
func NewSendMail(to, subject, body string, tgt *target.Target, transport Transport, logger action.Logger) (*SendMailAction, error) {
	a := &SendMailAction{
		to:      to,
		subject: subject,
		body:    body,
		sender: sender{
			name:      "email",
			transport: transport,
			logger:    loggerOrDefault(logger),
		},
	}
	if tgt == nil {
		return a, nil
	}
	cfg, err := Resolve(*tgt, SMTPKeys, Overrides{})
	if err != nil {
		return nil, err
	}
	a.hasTarget = true
	a.sender.config = cfg
	return a, nil
}

// SendMailFactory builds SendMailActions from raw invocation inputs.
func SendMailFactory(transport Transport) action.Factory {
	return func(req action.Request) (action.Action, error) {
		return NewSendMail(
			req.Inputs.String("to"),
			req.Inputs.String("subject"),
			req.Inputs.String("body"),
			req.Target,
			transport,
			req.Logger,
		)
	}
}

func (a *SendMailAction) Type() string { return SendMailType }

// Config returns the resolved configuration of this invocation.
func (a *SendMailAction) Config() ResolvedConfig { return a.sender.config }

func (a *SendMailAction) ValidateInputs() []string {
	errs := validateRecipients(a.to)
	if !a.hasTarget {
		return append(errs, "target is required")
	}
	return append(errs, validateConnection(a.sender.config)...)
}

func (a *SendMailAction) Execute(ctx context.Context) action.Result {
	return a.sender.send(ctx, Message{
		From:    a.sender.config.Username,
		To:      splitRecipients(a.to),
		Subject: a.subject,
		Body:    a.body,
	})
}
