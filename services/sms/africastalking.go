package smssvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var africasTalkingURL = "https://api.africastalking.com/version1/messaging"

// africasTalkingBackend talks to the Africa's Talking messaging REST
// API directly; the vendor publishes no Go SDK.
type africasTalkingBackend struct {
	username string
	apiKey   string
	senderID string
	client   *http.Client
}

var _ core.SMSBackend = (*africasTalkingBackend)(nil)

func NewAfricasTalkingBackend(conf *core.Config) *africasTalkingBackend {
	return &africasTalkingBackend{
		username: conf.AfricasTalking.Username,
		apiKey:   conf.AfricasTalking.ApiKey,
		senderID: conf.AfricasTalking.SenderID,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *africasTalkingBackend) Name() string { return "africastalking" }

type atResponse struct {
	SMSMessageData struct {
		Recipients []struct {
			Number string `json:"number"`
			Status string `json:"status"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

func (b *africasTalkingBackend) Send(ctx context.Context, to, body string) error {
	form := make(url.Values)
	form.Set("username", b.username)
	form.Set("to", to)
	form.Set("message", body)
	if b.senderID != "" {
		form.Set("from", b.senderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, africasTalkingURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "africastalking request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", b.apiKey)

	res, err := b.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "africastalking send")
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return errors.Errorf("africastalking: status %d", res.StatusCode)
	}

	var payload atResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return errors.Wrap(err, "africastalking response")
	}
	for _, rcp := range payload.SMSMessageData.Recipients {
		if rcp.Status != "Success" {
			return errors.Errorf("africastalking: %s rejected with status %q", rcp.Number, rcp.Status)
		}
	}
	return nil
}
