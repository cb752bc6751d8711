package email

import "github.com/RedouaeElalami/chutney/internal/action"

// Register adds both email actions to reg.
func Register(reg *action.Registry, transport Transport, providers Providers) {
	reg.Register(SendEmailType, SendEmailFactory(transport, providers))
	reg.Register(SendMailType, SendMailFactory(transport))
}
