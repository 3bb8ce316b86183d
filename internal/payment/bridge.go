// Package payment connects the bot to Paystack: checkout initialization, plan
// sync and the payments switch.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/internal/metrics"
	"github.com/m3rciful/scholarbot/internal/models"
)

var (
	ErrInvalidEmail     = errors.New("payment: invalid email")
	ErrZeroAmount       = errors.New("payment: amount must be greater than zero")
	ErrPaymentsDisabled = errors.New("payment: payments are disabled")
)

// PlanStore is what SyncPlans writes to.
type PlanStore interface {
	UpsertPlanByCode(ctx context.Context, p models.PricingPlan) (bool, error)
}

// BridgeOptions configure NewBridge.
type BridgeOptions struct {
	Gateway     Gateway
	Plans       PlanStore
	Switch      *Switch
	Currency    string
	CallbackURL string
	Channels    []string
}

type Bridge struct {
	gw          Gateway
	plans       PlanStore
	sw          *Switch
	validate    *validator.Validate
	currency    string
	callbackURL string
	channels    []string
	newRef      func() string
}

func NewBridge(opts BridgeOptions) *Bridge {
	channels := opts.Channels
	if len(channels) == 0 {
		channels = DefaultChannels
	}
	sw := opts.Switch
	if sw == nil {
		sw = NewSwitch(true)
	}
	return &Bridge{
		gw:          opts.Gateway,
		plans:       opts.Plans,
		sw:          sw,
		validate:    validator.New(),
		currency:    opts.Currency,
		callbackURL: opts.CallbackURL,
		channels:    channels,
		newRef:      func() string { return "sb_" + uuid.NewString() },
	}
}

// ValidEmail reports whether s looks like an email address.
func (b *Bridge) ValidEmail(s string) bool {
	return b.validate.Var(strings.TrimSpace(s), "required,email") == nil
}

// Checkout initializes a transaction for plan and returns the authorization URL.
func (b *Bridge) Checkout(ctx context.Context, telegramID int64, plan models.PricingPlan, email string) (string, error) {
	if !b.sw.Enabled() {
		return "", ErrPaymentsDisabled
	}
	email = strings.TrimSpace(email)
	if !b.ValidEmail(email) {
		return "", ErrInvalidEmail
	}
	if plan.Price <= 0 {
		return "", ErrZeroAmount
	}

	tid := strconv.FormatInt(telegramID, 10)
	req := InitializeRequest{
		Email:       email,
		Amount:      plan.Price,
		Reference:   b.newRef(),
		Currency:    b.currency,
		Plan:        plan.PlanCode(),
		CallbackURL: b.callbackURL,
		Channels:    b.channels,
		Metadata: Metadata{
			TelegramID: tid,
			PlanID:     strconv.FormatInt(plan.ID, 10),
			PlanName:   plan.Name,
			CustomFields: []CustomField{
				{DisplayName: "Telegram ID", VariableName: "telegram_id", Value: tid},
				{DisplayName: "Plan Name", VariableName: "plan_name", Value: plan.Name},
			},
		},
	}
	res, err := b.gw.Initialize(ctx, req)
	metrics.RecordCheckout(err)
	if err != nil {
		logger.Error(ctx, logger.CompPayment, "checkout.failed",
			slog.Int64("plan_id", plan.ID),
			slog.String("reference", req.Reference),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("initialize checkout: %w", err)
	}
	logger.Info(ctx, logger.CompPayment, "checkout.created",
		slog.Int64("plan_id", plan.ID),
		slog.Int64("amount", plan.Price),
		slog.String("reference", req.Reference),
	)
	return res.AuthorizationURL, nil
}

// SyncResult summarizes a plan sync.
type SyncResult struct {
	Created int
	Updated int
	Skipped int
}

// SyncPlans mirrors the Paystack plan list into the store, keyed by plan code.
func (b *Bridge) SyncPlans(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	plans, err := b.gw.ListPlans(ctx)
	if err != nil {
		return res, err
	}
	for _, p := range plans {
		if p.PlanCode == "" || p.Amount <= 0 {
			res.Skipped++
			continue
		}
		code := p.PlanCode
		created, err := b.plans.UpsertPlanByCode(ctx, models.PricingPlan{
			Name:             p.Name,
			Price:            p.Amount,
			Interval:         p.Interval,
			PaystackPlanCode: &code,
			Description:      p.Description,
			IsActive:         !p.IsArchived && !p.IsDeleted,
		})
		if err != nil {
			return res, fmt.Errorf("sync plan %s: %w", code, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	logger.Info(ctx, logger.CompPayment, "plans.synced",
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}
