package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

// Template identifiers.
const (
	TemplateVerifyEmail   = "verify-email"
	TemplatePasswordReset = "password-reset"
	TemplateWelcome       = "welcome"
)

// Rendered is the subject and bodies produced for a message.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

type emailTemplate struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

// Renderer turns a Message into subject and bodies. Every template receives the
// message data plus Name, AppName and FrontendURL.
type Renderer struct {
	appName     string
	frontendURL string
	templates   map[string]emailTemplate
}

func NewRenderer(appName, frontendURL string) *Renderer {
	r := &Renderer{
		appName:     appName,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		templates:   make(map[string]emailTemplate),
	}
	r.register(TemplateVerifyEmail, "Verify your email address", verifyHTML, verifyText)
	r.register(TemplatePasswordReset, "Your password reset code", resetHTML, resetText)
	r.register(TemplateWelcome, "Welcome aboard", welcomeHTML, welcomeText)
	return r
}

func (r *Renderer) register(name, subject, html, text string) {
	r.templates[name] = emailTemplate{
		subject: subject,
		html:    htmltemplate.Must(htmltemplate.New(name).Parse(html)),
		text:    texttemplate.Must(texttemplate.New(name).Parse(text)),
	}
}

// Render executes the named template.
func (r *Renderer) Render(msg Message) (Rendered, error) {
	tpl, ok := r.templates[msg.Template]
	if !ok {
		return Rendered{}, fmt.Errorf("mailer: unknown template %q", msg.Template)
	}

	data := map[string]interface{}{
		"Name":        msg.ToName,
		"AppName":     r.appName,
		"FrontendURL": r.frontendURL,
	}
	for k, v := range msg.Data {
		data[k] = v
	}

	var html, text bytes.Buffer
	if err := tpl.html.Execute(&html, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", msg.Template, err)
	}
	if err := tpl.text.Execute(&text, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s text: %w", msg.Template, err)
	}
	return Rendered{
		Subject: fmt.Sprintf("[%s] %s", r.appName, tpl.subject),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

const verifyHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2>Welcome to {{.AppName}}</h2>
<p>Hello {{.Name}},</p>
<p>Please confirm your email address to activate your account.</p>
<p style="text-align: center; margin: 30px 0;"><a href="{{.FrontendURL}}/verify-email?token={{.Token}}">Verify Email</a></p>
<p>This link expires in 24 hours. If you did not register, ignore this email.</p>
</div>`

const verifyText = `Hello {{.Name}},

Confirm your email address to activate your {{.AppName}} account:
{{.FrontendURL}}/verify-email?token={{.Token}}

This link expires in 24 hours.
`

const resetHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<p>Hello {{.Name}},</p>
<p>Use the code below to reset your password:</p>
<p style="font-size: 24px; letter-spacing: 4px;"><strong>{{.Code}}</strong></p>
<p>The code expires in 15 minutes. If you did not ask for a reset, ignore this email.</p>
</div>`

const resetText = `Hello {{.Name}},

Your password reset code is {{.Code}}. It expires in 15 minutes.
`

const welcomeHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<p>Hello {{.Name}},</p>
<p>Your email is verified and your {{.AppName}} account is active.</p>
<p><a href="{{.FrontendURL}}/login">Sign in</a></p>
</div>`

const welcomeText = `Hello {{.Name}},

Your email is verified and your {{.AppName}} account is active.
Sign in at {{.FrontendURL}}/login
`
