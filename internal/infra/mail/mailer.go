package mail

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/learnora/learnora-server/internal/infra/config"
)

//go:embed templates/activation.html
var activationHTML string

var activationTmpl = template.Must(template.New("activation").Parse(activationHTML))

// SMTPMailer delivers templated mail through a plain SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.MailFrom,
	}
}

func (s *SMTPMailer) SendActivationMail(ctx context.Context, to, name, code string) error {
	var body bytes.Buffer
	err := activationTmpl.Execute(&body, struct {
		Name string
		Code string
	}{Name: name, Code: code})
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Activate your account")
	m.SetBody("text/html", body.String())

	// gomail has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(m)
}
