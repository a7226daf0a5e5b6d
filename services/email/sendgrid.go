package emailsvc

import (
	"context"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/mahudhurio/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type sendgridTransport struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

var _ core.MailTransport = (*sendgridTransport)(nil)

func NewSendgridTransport(conf *core.Config) *sendgridTransport {
	from := conf.DefaultFromEmail()
	return &sendgridTransport{
		key:        conf.SendgridApiKey,
		from:       sgmail.NewEmail(from.Name, from.Address),
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (t *sendgridTransport) Name() string { return "sendgrid" }

func (t *sendgridTransport) Send(ctx context.Context, to mail.Address, subject, htmlBody, textBody string) error {
	req := sendgrid.GetRequest(t.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(t.prepare(to, subject, htmlBody, textBody))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sendgrid request")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid: status %d - body: %s", res.StatusCode, res.Body)
	}
	return nil
}

func (t *sendgridTransport) prepare(to mail.Address, subject, htmlBody, textBody string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = t.subjPrefix + subject
	p.AddTos(sgmail.NewEmail(to.Name, to.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(t.from)
	m.AddPersonalizations(p)

	contents := []*sgmail.Content{sgmail.NewContent("text/plain", textBody)}
	if htmlBody != "" {
		contents = append(contents, sgmail.NewContent("text/html", htmlBody))
	}
	m.AddContent(contents...)
	return m
}
