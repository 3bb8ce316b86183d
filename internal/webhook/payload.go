package webhook

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Paystack event names handled by the webhook.
const (
	EventSubscriptionCreate  = "subscription.create"
	EventInvoiceUpdate       = "invoice.update"
	EventSubscriptionDisable = "customer.subscription.disable"
	EventChargeSuccess       = "charge.success"
)

// Event is the envelope Paystack posts.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

// EventData is the union of the fields read from the handled events.
type EventData struct {
	SubscriptionCode string           `json:"subscription_code"`
	Reference        string           `json:"reference"`
	Status           string           `json:"status"`
	Paid             bool             `json:"paid"`
	NextPaymentDate  string           `json:"next_payment_date"`
	PaidAt           string           `json:"paid_at"`
	Metadata         Metadata         `json:"metadata"`
	Customer         Customer         `json:"customer"`
	Plan             PlanRef          `json:"plan"`
	Subscription     *SubscriptionRef `json:"subscription"`
}

type Customer struct {
	CustomerCode string   `json:"customer_code"`
	Email        string   `json:"email"`
	Metadata     Metadata `json:"metadata"`
}

type SubscriptionRef struct {
	SubscriptionCode string   `json:"subscription_code"`
	Status           string   `json:"status"`
	NextPaymentDate  string   `json:"next_payment_date"`
	Metadata         Metadata `json:"metadata"`
}

// PlanRef tolerates Paystack sending "plan": {} or "plan": "" on one-off charges.
type PlanRef struct {
	PlanCode string
	Interval string
}

func (p *PlanRef) UnmarshalJSON(b []byte) error {
	if !isObject(b) {
		*p = PlanRef{}
		return nil
	}
	var raw struct {
		PlanCode string `json:"plan_code"`
		Interval string `json:"interval"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*p = PlanRef{PlanCode: raw.PlanCode, Interval: raw.Interval}
	return nil
}

// Metadata is the correlation data attached at checkout. Paystack echoes it
// back as an object, an empty string or null depending on the event.
type Metadata struct {
	TelegramID int64
	PlanID     int64
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	*m = Metadata{}
	if !isObject(b) {
		return nil
	}
	var raw struct {
		TelegramID json.RawMessage `json:"telegram_id"`
		PlanID     json.RawMessage `json:"plan_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	m.TelegramID = looseInt(raw.TelegramID)
	m.PlanID = looseInt(raw.PlanID)
	return nil
}

func isObject(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

// looseInt reads 42 or "42"; anything else is 0.
func looseInt(raw json.RawMessage) int64 {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// TelegramID looks in the transaction metadata, then the customer metadata,
// then the subscription metadata.
func (d EventData) TelegramID() int64 {
	if id := d.Metadata.TelegramID; id != 0 {
		return id
	}
	if id := d.Customer.Metadata.TelegramID; id != 0 {
		return id
	}
	if d.Subscription != nil {
		return d.Subscription.Metadata.TelegramID
	}
	return 0
}

func (d EventData) subscriptionCode() string {
	if d.SubscriptionCode != "" {
		return d.SubscriptionCode
	}
	if d.Subscription != nil {
		return d.Subscription.SubscriptionCode
	}
	return ""
}

// recurring reports whether the event belongs to a Paystack plan subscription.
func (d EventData) recurring() bool {
	return d.Plan.PlanCode != "" || d.subscriptionCode() != ""
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
