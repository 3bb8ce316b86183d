package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/m3rciful/scholarbot/core/telegram/netutil"
)

// DefaultChannels are offered on every checkout.
var DefaultChannels = []string{"card", "bank", "ussd", "qr", "mobile_money"}

// CustomField is shown on the Paystack dashboard next to a transaction.
type CustomField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

// Metadata travels with the transaction and comes back in webhooks.
type Metadata struct {
	TelegramID   string        `json:"telegram_id"`
	PlanID       string        `json:"plan_id,omitempty"`
	PlanName     string        `json:"plan_name"`
	CustomFields []CustomField `json:"custom_fields"`
}

type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	Reference   string   `json:"reference"`
	Currency    string   `json:"currency,omitempty"`
	Plan        string   `json:"plan,omitempty"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Channels    []string `json:"channels,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Plan is a plan as listed by Paystack.
type Plan struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PlanCode    string `json:"plan_code"`
	Amount      int64  `json:"amount"`
	Interval    string `json:"interval"`
	Description string `json:"description"`
	IsArchived  bool   `json:"is_archived"`
	IsDeleted   bool   `json:"is_deleted"`
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Gateway is the part of the Paystack API the bridge uses.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error)
	ListPlans(ctx context.Context) ([]Plan, error)
}

// Paystack is a minimal REST client.
type Paystack struct {
	http *resty.Client
}

func NewPaystack(baseURL, secretKey string, timeout time.Duration) *Paystack {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Paystack{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetAuthToken(secretKey).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			AddRetryCondition(retryIdempotent),
	}
}

// retryIdempotent replays plan listing on transient failures; checkout
// initialization is never replayed.
func retryIdempotent(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil {
		return false
	}
	return netutil.Retryable(r.Request.Method, r.StatusCode(), err)
}

// Initialize calls POST /transaction/initialize.
func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (InitializeResult, error) {
	var out envelope[InitializeResult]
	resp, err := p.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/transaction/initialize")
	if err != nil {
		return InitializeResult{}, fmt.Errorf("paystack initialize: %w", err)
	}
	if resp.IsError() || !out.Status {
		return InitializeResult{}, fmt.Errorf("paystack initialize: status %d: %s", resp.StatusCode(), out.Message)
	}
	if out.Data.AuthorizationURL == "" {
		return InitializeResult{}, fmt.Errorf("paystack initialize: empty authorization url")
	}
	return out.Data, nil
}

// ListPlans calls GET /plan.
func (p *Paystack) ListPlans(ctx context.Context) ([]Plan, error) {
	var out envelope[[]Plan]
	resp, err := p.http.R().
		SetContext(ctx).
		SetQueryParam("perPage", "100").
		SetResult(&out).
		SetError(&out).
		Get("/plan")
	if err != nil {
		return nil, fmt.Errorf("paystack list plans: %w", err)
	}
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("paystack list plans: status %d: %s", resp.StatusCode(), out.Message)
	}
	return out.Data, nil
}
