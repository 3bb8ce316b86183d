// Package webhook serves the Paystack webhook together with health and
// Prometheus endpoints.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/internal/metrics"
	"github.com/m3rciful/scholarbot/internal/models"
	"github.com/m3rciful/scholarbot/internal/payment"
	"github.com/m3rciful/scholarbot/internal/store"
)

// MaxBodyBytes caps webhook payloads.
const MaxBodyBytes = 1 << 20

// SignatureHeader carries the hex HMAC-SHA512 of the raw body.
const SignatureHeader = "x-paystack-signature"

const (
	textActivated = "✅ **Subscription active**\n\nThank you! Your premium access is now active. Open /start to continue."
	textAttention = "⚠️ We could not renew your subscription. Please check your payment method with Paystack."
	textCancelled = "Your subscription has been cancelled. You can subscribe again anytime from the menu."
)

// Store is the persistence the webhook writes to.
type Store interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (models.User, error)
	GetSubscriptionByCode(ctx context.Context, code string) (models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error)
	GetPlan(ctx context.Context, id int64) (models.PricingPlan, error)
	GetPlanByCode(ctx context.Context, code string) (models.PricingPlan, error)
}

// Notifier tells a user about a subscription change. It must not block.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, text string)
}

// Handler processes Paystack events.
type Handler struct {
	secret   []byte
	store    Store
	notifier Notifier
	now      func() time.Time
}

// NewHandler builds the webhook handler. notifier may be nil.
func NewHandler(secret string, st Store, notifier Notifier) *Handler {
	return &Handler{secret: []byte(secret), store: st, notifier: notifier, now: time.Now}
}

// Verify reports whether signature is the HMAC-SHA512 of body under the secret.
func (h *Handler) Verify(body []byte, signature string) bool {
	if len(h.secret) == 0 || signature == "" {
		return false
	}
	want, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, h.secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), want)
}

// Sign returns the signature Paystack would send for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, status, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response{Status: status, Message: message})
}

// outcome is the HTTP answer for one event.
type outcome struct {
	code    int
	message string
}

func fail(code int, message string) outcome { return outcome{code: code, message: message} }

// ServeHTTP implements POST /paystack/webhook.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		h.finish(ctx, w, "", start, fail(http.StatusBadRequest, "body too large or unreadable"))
		return
	}
	if !h.Verify(body, r.Header.Get(SignatureHeader)) {
		logger.Warn(ctx, logger.CompWebhook, "signature.invalid",
			slog.String("remote", r.RemoteAddr),
		)
		h.finish(ctx, w, "", start, fail(http.StatusUnauthorized, "invalid signature"))
		return
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		h.finish(ctx, w, "", start, fail(http.StatusBadRequest, "malformed payload"))
		return
	}
	h.finish(ctx, w, ev.Event, start, h.process(ctx, ev))
}

func (h *Handler) finish(ctx context.Context, w http.ResponseWriter, event string, start time.Time, out outcome) {
	metrics.RecordWebhook(event, out.code)
	status := "ok"
	if out.code >= http.StatusBadRequest {
		status = "error"
	}
	attrs := []slog.Attr{
		slog.String("paystack_event", event),
		slog.Int("code", out.code),
		slog.String("message", out.message),
		slog.Duration("duration", logger.Took(start)),
	}
	if out.code >= http.StatusInternalServerError {
		logger.Error(ctx, logger.CompWebhook, "event.handled", attrs...)
	} else {
		logger.Info(ctx, logger.CompWebhook, "event.handled", attrs...)
	}
	writeJSON(w, out.code, status, out.message)
}

// process applies a verified event to the store.
func (h *Handler) process(ctx context.Context, ev Event) outcome {
	switch ev.Event {
	case EventSubscriptionCreate, EventInvoiceUpdate, EventSubscriptionDisable, EventChargeSuccess:
	default:
		return outcome{code: http.StatusOK, message: "ignored"}
	}
	if ev.Event == EventChargeSuccess && ev.Data.recurring() {
		// subscription.create and invoice.update own the row for plan charges.
		return outcome{code: http.StatusOK, message: "ignored: subscription charge"}
	}

	telegramID := ev.Data.TelegramID()
	if telegramID == 0 {
		return fail(http.StatusBadRequest, "missing telegram_id")
	}
	user, err := h.store.GetUserByTelegramID(ctx, telegramID)
	if errors.Is(err, store.ErrNotFound) {
		return fail(http.StatusNotFound, "user not found")
	}
	if err != nil {
		return h.storeFailed(ctx, ev.Event, err)
	}

	var sub models.Subscription
	var note string
	switch ev.Event {
	case EventSubscriptionCreate:
		sub, note, err = h.subscriptionCreated(ctx, ev.Data)
	case EventInvoiceUpdate:
		sub, note, err = h.invoiceUpdated(ctx, ev.Data)
	case EventSubscriptionDisable:
		sub, note, err = h.subscriptionDisabled(ctx, ev.Data)
	case EventChargeSuccess:
		sub, note, err = h.chargeSucceeded(ctx, ev.Data)
	}
	var bad badEvent
	switch {
	case errors.As(err, &bad):
		return fail(bad.code, bad.message)
	case err != nil:
		return h.storeFailed(ctx, ev.Event, err)
	}

	sub.UserID = user.ID
	if sub.PaystackCustomerCode == "" {
		sub.PaystackCustomerCode = ev.Data.Customer.CustomerCode
	}
	if sub.PaystackEmail == "" {
		sub.PaystackEmail = ev.Data.Customer.Email
	}
	saved, err := h.store.UpsertSubscription(ctx, sub)
	if err != nil {
		return h.storeFailed(ctx, ev.Event, err)
	}
	logger.Info(ctx, logger.CompWebhook, "subscription.upserted",
		slog.Int64("telegram_id", telegramID),
		slog.String("code", saved.PaystackSubscriptionCode),
		slog.String("status", saved.Status),
	)
	if h.notifier != nil && note != "" {
		h.notifier.Notify(context.WithoutCancel(ctx), telegramID, note)
	}
	return outcome{code: http.StatusOK, message: saved.Status}
}

func (h *Handler) storeFailed(ctx context.Context, event string, err error) outcome {
	logger.Error(ctx, logger.CompWebhook, "store.failed",
		slog.String("paystack_event", event),
		slog.String("err", err.Error()),
	)
	return fail(http.StatusInternalServerError, "internal error")
}

// badEvent is a client error found while interpreting an event.
type badEvent struct {
	code    int
	message string
}

func (e badEvent) Error() string { return e.message }

// planFor resolves the local plan from a Paystack plan code, then from metadata.
func (h *Handler) planFor(ctx context.Context, d EventData) (*models.PricingPlan, error) {
	if d.Plan.PlanCode != "" {
		p, err := h.store.GetPlanByCode(ctx, d.Plan.PlanCode)
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if d.Metadata.PlanID != 0 {
		p, err := h.store.GetPlan(ctx, d.Metadata.PlanID)
		if err == nil {
			return &p, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func (h *Handler) nextDate(raw string, plan *models.PricingPlan, fallbackInterval string, from time.Time) *time.Time {
	if t := parseTime(raw); t != nil {
		return t
	}
	interval := fallbackInterval
	if plan != nil {
		interval = plan.Interval
	}
	if interval == "" {
		return nil
	}
	t := payment.NextPaymentDate(interval, from)
	return &t
}

func planIDOf(p *models.PricingPlan) *int64 {
	if p == nil {
		return nil
	}
	id := p.ID
	return &id
}

func (h *Handler) subscriptionCreated(ctx context.Context, d EventData) (models.Subscription, string, error) {
	code := d.subscriptionCode()
	if code == "" {
		return models.Subscription{}, "", badEvent{http.StatusBadRequest, "missing subscription_code"}
	}
	plan, err := h.planFor(ctx, d)
	if err != nil {
		return models.Subscription{}, "", err
	}
	return models.Subscription{
		PlanID:                   planIDOf(plan),
		PaystackSubscriptionCode: code,
		Status:                   models.StatusActive,
		NextPaymentDate:          h.nextDate(d.NextPaymentDate, plan, d.Plan.Interval, h.now()),
	}, textActivated, nil
}

func (h *Handler) invoiceUpdated(ctx context.Context, d EventData) (models.Subscription, string, error) {
	code := d.subscriptionCode()
	if code == "" {
		return models.Subscription{}, "", badEvent{http.StatusBadRequest, "missing subscription_code"}
	}
	status, note := models.StatusAttention, textAttention
	if d.Status == "success" || d.Status == models.StatusActive || d.Paid {
		status, note = models.StatusActive, ""
	}
	plan, err := h.planFor(ctx, d)
	if err != nil {
		return models.Subscription{}, "", err
	}
	var next *time.Time
	if d.Subscription != nil {
		next = parseTime(d.Subscription.NextPaymentDate)
	}
	return models.Subscription{
		PlanID:                   planIDOf(plan),
		PaystackSubscriptionCode: code,
		Status:                   status,
		NextPaymentDate:          next,
	}, note, nil
}

func (h *Handler) subscriptionDisabled(ctx context.Context, d EventData) (models.Subscription, string, error) {
	code := d.subscriptionCode()
	if code == "" {
		return models.Subscription{}, "", badEvent{http.StatusBadRequest, "missing subscription_code"}
	}
	existing, err := h.store.GetSubscriptionByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return models.Subscription{}, "", badEvent{http.StatusNotFound, "subscription not found"}
	}
	if err != nil {
		return models.Subscription{}, "", err
	}
	existing.Status = models.StatusCancelled
	return existing, textCancelled, nil
}

// chargeSucceeded records a one-off charge that no subscription will follow.
func (h *Handler) chargeSucceeded(ctx context.Context, d EventData) (models.Subscription, string, error) {
	if d.Reference == "" {
		return models.Subscription{}, "", badEvent{http.StatusBadRequest, "missing reference"}
	}
	plan, err := h.planFor(ctx, d)
	if err != nil {
		return models.Subscription{}, "", err
	}
	paidAt := h.now()
	if t := parseTime(d.PaidAt); t != nil {
		paidAt = *t
	}
	return models.Subscription{
		PlanID:                   planIDOf(plan),
		PaystackSubscriptionCode: "ref:" + d.Reference,
		Status:                   models.StatusActive,
		NextPaymentDate:          h.nextDate("", plan, d.Plan.Interval, paidAt),
	}, textActivated, nil
}
