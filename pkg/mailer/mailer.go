package mailer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/postgrad-supervision-api/pkg/config"
)

// Provider names accepted in EMAIL_PROVIDER.
const (
	ProviderConsole  = "console"
	ProviderSMTP     = "smtp"
	ProviderSendGrid = "sendgrid"
)

// Message is a templated email addressed to a single recipient.
type Message struct {
	To       string
	ToName   string
	Template string
	Data     map[string]interface{}
}

// Sender delivers messages through a concrete transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New selects the transport configured in EMAIL_PROVIDER. SMTP without
// credentials degrades to the console sender.
func New(cfg config.EmailConfig, renderer *Renderer, logger *zap.Logger) (Sender, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderConsole:
		return NewConsoleSender(renderer, logger), nil
	case ProviderSMTP:
		if cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
			logger.Warn("smtp credentials not configured, emails will be logged only")
			return NewConsoleSender(renderer, logger), nil
		}
		return NewSMTPSender(cfg, renderer), nil
	case ProviderSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("mailer: SENDGRID_API_KEY required for sendgrid provider")
		}
		return NewSendGridSender(cfg, renderer), nil
	default:
		return nil, fmt.Errorf("mailer: unknown provider %q", cfg.Provider)
	}
}
