package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/noah-isme/postgrad-supervision-api/pkg/config"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers messages through the SendGrid v3 mail API.
type SendGridSender struct {
	key      string
	from     *sgmail.Email
	renderer *Renderer
}

func NewSendGridSender(cfg config.EmailConfig, renderer *Renderer) *SendGridSender {
	return &SendGridSender{
		key:      cfg.SendGridAPIKey,
		from:     sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		renderer: renderer,
	}
}

func (s *SendGridSender) prepare(msg Message) (*sgmail.SGMailV3, error) {
	rendered, err := s.renderer.Render(msg)
	if err != nil {
		return nil, err
	}
	p := sgmail.NewPersonalization()
	p.Subject = rendered.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", rendered.Text),
		sgmail.NewContent("text/html", rendered.HTML),
	)
	return m, nil
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	m, err := s.prepare(msg)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
