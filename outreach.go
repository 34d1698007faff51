/*
Copyright 2024 Reclaim Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package reclaim

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/bykiy/reclaim/config"
	"github.com/bykiy/reclaim/internal/apierror"
	"github.com/bykiy/reclaim/internal/request"
	"github.com/bykiy/reclaim/model"
)

// MessageTemplate is an outreach message with {{variable}} placeholders.
// SMS templates have no subject.
type MessageTemplate struct {
	Subject string
	Body    string
}

// messageTemplates is the outreach library. Bodies reference
// {{discount_code}} so the configured code flows through.
var messageTemplates = map[string]MessageTemplate{
	"apology": {
		Subject: "We owe you an apology — and your order, {{first_name}}",
		Body: `Hi {{first_name}},

I'm reaching out personally because I owe you an apology. You placed order {{order_number}} on {{order_date}} for {{dollar}}{{amount}}, and we failed to get it to you on time. That's not acceptable, and I take full responsibility.

Here's what I want to do for you — your choice:

Option 1: We ship your order THIS WEEK via express air shipping, and I'm including a 30% discount code ({{discount_code}}) for your next purchase as our way of saying sorry.

Option 2: We process a full refund to your original payment method within 3-5 business days, plus you still get the 30% discount code for whenever you're ready to shop with us again.

Just reply to this email with "SHIP" or "REFUND" and we'll take care of it immediately.

Again, I'm truly sorry for the wait. You deserved better.

With respect,
BY KIY Team`,
	},
	"proof": {
		Subject: "Your order is on its way, {{first_name}}!",
		Body: `Hi {{first_name}},

Great news — your order {{order_number}} has been shipped via express air and is on its way to you!

You should receive it within 5-7 business days. We'll send you tracking info as soon as it's available.

As promised, here's your 30% discount code: {{discount_code}}
Use it on your next order at bykiy.com — no expiration.

Thank you for your patience. We truly appreciate you giving us another chance.

Best,
BY KIY Team`,
	},
	"last_chance": {
		Subject: "Last call: Your {{dollar}}{{amount}} order — what would you like us to do?",
		Body: `Hi {{first_name}},

I wanted to follow up one last time about your order {{order_number}} ({{dollar}}{{amount}} from {{order_date}}).

We haven't heard back from you yet, and I want to make sure we resolve this. We have two options ready for you:

1. Ship your order express this week + 30% discount code
2. Full refund + 30% discount code

If I don't hear back within 48 hours, we'll process a full refund to protect your purchase. You don't need to do anything — we'll take care of it.

Reply anytime. We're here for you.

BY KIY Team`,
	},
	"sms_checkin": {
		Body: `Hi {{first_name}}, this is BY KIY. We owe you an apology about order {{order_number}}. We'd like to ship it express this week or give you a full refund — your choice. Reply SHIP or REFUND. Sorry for the wait! 🙏`,
	},
	"sms_lastchance": {
		Body: `{{first_name}}, last follow-up on your BY KIY order ({{dollar}}{{amount}}). We'll process a full refund in 48hrs if we don't hear from you. Reply SHIP to get it express shipped instead. — BY KIY`,
	},
}

// channelStatus maps an outreach channel to the pipeline status it
// advances the customer to. Unknown channels fall back to email_sent.
var channelStatus = map[string]model.RecoveryStatus{
	"email":    model.StatusEmailSent,
	"sms":      model.StatusSMSSent,
	"whatsapp": model.StatusWhatsappSent,
}

// RenderTemplate substitutes template variables for a customer. The
// first name falls back to "there" when the customer name is empty.
func RenderTemplate(tmpl MessageTemplate, customer *model.RecoveryCustomer, discountCode string) (subject, body string) {
	firstName := "there"
	if fields := strings.Fields(customer.CustomerName); len(fields) > 0 {
		firstName = fields[0]
	}
	orderNumber := customer.OrderNumber
	if orderNumber == "" {
		orderNumber = "N/A"
	}
	orderDate := "N/A"
	if customer.OrderDate != nil {
		orderDate = customer.OrderDate.Format("1/2/2006")
	}

	replacer := strings.NewReplacer(
		"{{first_name}}", firstName,
		"{{order_number}}", orderNumber,
		"{{order_date}}", orderDate,
		"{{amount}}", fmt.Sprintf("%.2f", customer.OrderAmount),
		"{{discount_code}}", discountCode,
		"{{dollar}}", "$",
	)
	return replacer.Replace(tmpl.Subject), replacer.Replace(tmpl.Body)
}

// OutreachEvent is what a dispatcher delivers downstream for one
// rendered message.
type OutreachEvent struct {
	Template    string
	Subject     string
	Body        string
	Email       string
	FirstName   string
	OrderNumber string
	Amount      float64
}

// Dispatcher delivers a rendered outreach message. Implementations
// report whether the message actually left the building; outreach is
// still logged when it did not.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *OutreachEvent) (bool, error)
}

// KlaviyoDispatcher delivers email outreach as Klaviyo events. Without
// an API key it is a no-op so the pipeline works in dry-run setups.
type KlaviyoDispatcher struct {
	conf   *config.OutreachConfig
	client *http.Client
}

func NewKlaviyoDispatcher(conf *config.OutreachConfig) *KlaviyoDispatcher {
	return &KlaviyoDispatcher{
		conf:   conf,
		client: &http.Client{Timeout: time.Duration(conf.TimeoutSec) * time.Second},
	}
}

// klaviyoEvent mirrors the Klaviyo events API payload shape.
type klaviyoEvent struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			Metric struct {
				Data struct {
					Type       string `json:"type"`
					Attributes struct {
						Name string `json:"name"`
					} `json:"attributes"`
				} `json:"data"`
			} `json:"metric"`
			Profile struct {
				Data struct {
					Type       string `json:"type"`
					Attributes struct {
						Email     string `json:"email"`
						FirstName string `json:"first_name"`
					} `json:"attributes"`
				} `json:"data"`
			} `json:"profile"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"attributes"`
	} `json:"data"`
}

func (d *KlaviyoDispatcher) Dispatch(ctx context.Context, event *OutreachEvent) (bool, error) {
	if d.conf.KlaviyoAPIKey == "" {
		return false, nil
	}

	payload := &klaviyoEvent{}
	payload.Data.Type = "event"
	payload.Data.Attributes.Metric.Data.Type = "metric"
	payload.Data.Attributes.Metric.Data.Attributes.Name = fmt.Sprintf("Recovery %s", event.Template)
	payload.Data.Attributes.Profile.Data.Type = "profile"
	payload.Data.Attributes.Profile.Data.Attributes.Email = event.Email
	payload.Data.Attributes.Profile.Data.Attributes.FirstName = event.FirstName
	payload.Data.Attributes.Properties = map[string]interface{}{
		"order_number": event.OrderNumber,
		"amount":       event.Amount,
		"template":     event.Template,
		"subject":      event.Subject,
		"body":         event.Body,
	}

	operation := func() error {
		body, err := request.ToJsonReq(payload)
		if err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.conf.Endpoint, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", fmt.Sprintf("Klaviyo-API-Key %s", d.conf.KlaviyoAPIKey))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("revision", "2024-02-15")

		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("klaviyo returned status %d", resp.StatusCode)
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx))
	if err != nil {
		return false, errors.Wrap(err, "dispatching klaviyo event")
	}
	return true, nil
}

// OutreachResult is returned to the caller after a send: what was sent,
// where, and a preview of the rendered body.
type OutreachResult struct {
	SentViaKlaviyo bool   `json:"sent_via_klaviyo"`
	Channel        string `json:"channel"`
	Template       string `json:"template"`
	Subject        string `json:"subject"`
	Preview        string `json:"preview"`
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	out := ""
	for _, r := range runes {
		if len(out)+len(string(r)) > n {
			break
		}
		out += string(r)
	}
	return out
}

// SendOutreach renders a template for a recovery customer, dispatches
// it over the requested channel, advances the pipeline status and logs
// the attempt. Dispatch failures are logged but do not abort: the
// status change and the outreach log entry still happen.
func (r *Reclaim) SendOutreach(ctx context.Context, customerID int64, channel, template string) (*OutreachResult, error) {
	ctx, span := otel.Tracer("reclaim.outreach").Start(ctx, "SendOutreach")
	defer span.End()

	conf, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	tmpl, ok := messageTemplates[template]
	if !ok {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("unknown template %q", template), nil)
	}

	customer, err := r.datasource.GetRecoveryCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("recovery customer %d not found", customerID), err)
		}
		return nil, errors.Wrap(err, "loading recovery customer")
	}

	subject, bodyText := RenderTemplate(tmpl, customer, conf.Outreach.DiscountCode)

	firstName := "there"
	if fields := strings.Fields(customer.CustomerName); len(fields) > 0 {
		firstName = fields[0]
	}

	sent := false
	if channel == "email" {
		sent, err = r.dispatcher.Dispatch(ctx, &OutreachEvent{
			Template:    template,
			Subject:     subject,
			Body:        bodyText,
			Email:       customer.CustomerEmail,
			FirstName:   firstName,
			OrderNumber: customer.OrderNumber,
			Amount:      customer.OrderAmount,
		})
		if err != nil {
			logrus.WithError(err).WithField("customer_id", customerID).Error("outreach dispatch failed")
			sent = false
		}
	}

	status, ok := channelStatus[channel]
	if !ok {
		status = model.StatusEmailSent
	}
	if err := r.datasource.UpdateRecoveryStatus(ctx, customerID, string(status), channel, ""); err != nil {
		return nil, errors.Wrap(err, "updating recovery status")
	}
	if err := r.datasource.MarkDiscountSent(ctx, customerID, conf.Outreach.DiscountCode); err != nil {
		return nil, errors.Wrap(err, "marking discount sent")
	}

	if err := r.datasource.RecordOutreach(ctx, &model.OutreachEntry{
		RecoveryCustomerID: customerID,
		Channel:            channel,
		TemplateUsed:       template,
		MessagePreview:     truncate(bodyText, 200),
		Status:             "sent",
	}); err != nil {
		return nil, errors.Wrap(err, "recording outreach")
	}

	return &OutreachResult{
		SentViaKlaviyo: sent,
		Channel:        channel,
		Template:       template,
		Subject:        subject,
		Preview:        truncate(bodyText, 300),
	}, nil
}
