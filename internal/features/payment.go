package features

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/scholarbot/core/telegram/format"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/models"
	"github.com/m3rciful/scholarbot/internal/payment"
	"github.com/m3rciful/scholarbot/internal/store"
)

const (
	paymentSelectPlan flow.State = "select_plan"
	paymentAskEmail   flow.State = "ask_email"
)

func paymentMachine(d Deps) *flow.Machine {
	return &flow.Machine{
		Feature: FeaturePayment,
		Entry:   MenuSubscribe,
		Timeout: d.PaymentTimeout,
		Init:    func(data *flow.Data) { data.Payment = &flow.PaymentData{} },
		Start:   flow.Transition{To: []flow.State{paymentSelectPlan, flow.Terminal}, Handle: d.showPlans},
		States:  []flow.State{paymentSelectPlan, paymentAskEmail},
		Table: map[flow.State]map[flow.EventKind]flow.Transition{
			paymentSelectPlan: {
				flow.EventSelectPlan: {To: []flow.State{paymentAskEmail, flow.Terminal}, Handle: d.choosePlan},
			},
			paymentAskEmail: {
				flow.EventText: {To: []flow.State{flow.Terminal}, Handle: d.checkout},
			},
		},
	}
}

func (d Deps) paymentsOff() bool {
	return d.Payments != nil && !d.Payments.Enabled()
}

// PlanLabel is the button caption of a plan.
func PlanLabel(p models.PricingPlan) string {
	return fmt.Sprintf("%s - %s (%s)", p.Name, payment.FormatNaira(p.Price), p.Interval)
}

func (d Deps) showPlans(ctx context.Context, _ *flow.Session, _ flow.Event, r flow.Responder) (flow.State, error) {
	if d.paymentsOff() {
		return flow.Terminal, r.Edit(paymentsDisabled, menuOnly())
	}
	plans, err := d.Store.ActivePlans(ctx)
	if err != nil {
		return "", err
	}
	if len(plans) == 0 {
		return flow.Terminal, r.Edit(noPlans, menuOnly())
	}
	kb := make(flow.Keyboard, 0, len(plans)+1)
	for _, p := range plans {
		kb = append(kb, []flow.Button{{
			Text:   PlanLabel(p),
			Unique: SelectPlan,
			Data:   strconv.FormatInt(p.ID, 10),
		}})
	}
	kb = append(kb, []flow.Button{flow.MenuButton})
	return paymentSelectPlan, r.Edit(plansIntro, kb)
}

func (d Deps) choosePlan(ctx context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	id, err := strconv.ParseInt(ev.Payload, 10, 64)
	if err != nil {
		return flow.Terminal, r.Edit(sessionExpired, menuOnly())
	}
	plan, err := d.Store.GetPlan(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !plan.IsActive) {
		return flow.Terminal, r.Edit(sessionExpired, menuOnly())
	}
	if err != nil {
		return s.State, err
	}
	*s.Data.Payment = flow.PaymentData{PlanID: plan.ID, PlanName: plan.Name, Amount: plan.Price}
	return paymentAskEmail, r.Edit(fmt.Sprintf(planChosen, format.Escape(plan.Name), payment.FormatNaira(plan.Price)), menuOnly())
}

func (d Deps) checkout(ctx context.Context, s *flow.Session, ev flow.Event, r flow.Responder) (flow.State, error) {
	p := s.Data.Payment
	if p.PlanID == 0 {
		return flow.Terminal, r.Send(sessionExpired, menuOnly())
	}
	email := strings.TrimSpace(ev.Text)
	if !d.Checkout.ValidEmail(email) {
		return s.State, r.Send(badEmail, menuOnly())
	}

	plan, err := d.Store.GetPlan(ctx, p.PlanID)
	if errors.Is(err, store.ErrNotFound) {
		return flow.Terminal, r.Send(sessionExpired, menuOnly())
	}
	if err != nil {
		return s.State, err
	}
	// charge what the user was shown
	plan.Name, plan.Price = p.PlanName, p.Amount

	url, err := d.Checkout.Checkout(ctx, s.Key.UserID, plan, email)
	if errors.Is(err, payment.ErrPaymentsDisabled) {
		return flow.Terminal, r.Send(paymentsDisabled, menuOnly())
	}
	if err != nil {
		return s.State, err
	}
	text := fmt.Sprintf(paymentReady, format.Escape(p.PlanName), payment.FormatNaira(p.Amount))
	return flow.Terminal, r.Send(text, withMenu(flow.Button{Text: labelPayNow, URL: url}))
}
