package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RedouaeElalami/chutney/internal/action"
)

// NoAuthDiagnostic is the failure diagnostic when no credential combination is usable.
const NoAuthDiagnostic = "no valid authentication method provided"

const maxPort = 65535

// sender is the part shared by both email actions: it turns a resolved
// configuration into exactly one transport call and exactly one log line.
type sender struct {
	name      string
	transport Transport
	logger    action.Logger
	config    ResolvedConfig
	provider  Provider
}

func (s sender) send(ctx context.Context, msg Message) action.Result {
	creds := ResolveCredentials(s.config)
	if !creds.Valid() {
		s.logger.Error("authentication configuration error: " + NoAuthDiagnostic)
		return action.Ko(NoAuthDiagnostic)
	}

	err := s.transport.Send(ctx, TransportConfig{
		Host:        s.config.Host,
		Port:        s.config.Port,
		UseTLS:      s.config.UseTLS,
		UseSSL:      s.config.UseSSL,
		Credentials: creds,
		Provider:    s.provider,
	}, msg)
	if err != nil {
		s.logger.Error(fmt.Sprintf("failed to send %s: %s", s.name, err.Error()))
		return action.Ko(fmt.Sprintf("failed to send %s: %s", s.name, err.Error()))
	}

	s.logger.Info(s.name + " sent successfully")
	return action.Ok()
}

// validateConnection reports blank or out-of-range connection fields.
func validateConnection(cfg ResolvedConfig) []string {
	var errs []string
	if strings.TrimSpace(cfg.Host) == "" {
		errs = append(errs, "smtp host is required")
	}
	if cfg.Port <= 0 || cfg.Port > maxPort {
		errs = append(errs, fmt.Sprintf("smtp port %d is out of range", cfg.Port))
	}
	if strings.TrimSpace(cfg.Username) == "" {
		errs = append(errs, "username is required")
	}
	return errs
}

func validateRecipients(to string) []string {
	if len(splitRecipients(to)) == 0 {
		return []string{"to is required"}
	}
	return nil
}

func loggerOrDefault(l action.Logger) action.Logger {
	if l != nil {
		return l
	}
	return action.NewRecordingLogger(slog.Default())
}
