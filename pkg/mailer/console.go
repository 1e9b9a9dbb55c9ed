package mailer

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleSender writes rendered messages to the log instead of delivering them.
type ConsoleSender struct {
	renderer *Renderer
	logger   *zap.Logger
}

func NewConsoleSender(renderer *Renderer, logger *zap.Logger) *ConsoleSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleSender{renderer: renderer, logger: logger}
}

func (s *ConsoleSender) Send(_ context.Context, msg Message) error {
	rendered, err := s.renderer.Render(msg)
	if err != nil {
		return err
	}
	s.logger.Info("email (console)",
		zap.String("to", msg.To),
		zap.String("template", msg.Template),
		zap.String("subject", rendered.Subject),
		zap.String("body", rendered.Text),
	)
	return nil
}
