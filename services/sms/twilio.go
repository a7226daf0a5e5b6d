package smssvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/trezcool/mahudhurio/core"
)

type twilioBackend struct {
	client *twilio.RestClient
	from   string
}

var _ core.SMSBackend = (*twilioBackend)(nil)

func NewTwilioBackend(conf *core.Config) *twilioBackend {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: conf.Twilio.AccountSID,
		Password: conf.Twilio.AuthToken,
	})
	timeout := conf.Notification.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client.SetTimeout(timeout)
	return &twilioBackend{client: client, from: conf.Twilio.FromNumber}
}

func (b *twilioBackend) Name() string { return "twilio" }

func (b *twilioBackend) Send(ctx context.Context, to, body string) error {
	_ = ctx // CreateMessage takes no context; the client timeout set above bounds the call

	params := new(openapi.CreateMessageParams)
	params.SetTo(to)
	params.SetFrom(b.from)
	params.SetBody(body)

	_, err := b.client.Api.CreateMessage(params)
	return errors.Wrap(err, "twilio send")
}
