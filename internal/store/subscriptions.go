package store

import (
	"context"

	"github.com/m3rciful/scholarbot/internal/models"
)

const subscriptionColumns = `id, user_id, plan_id, paystack_subscription_code, paystack_customer_code,
	paystack_email, status, next_payment_date, created_at, updated_at`

// HasActiveSubscription reports whether any subscription of the user has status active.
// next_payment_date is not consulted.
func (s *Store) HasActiveSubscription(ctx context.Context, userID int64) (bool, error) {
	var n int
	err := s.get(ctx, &n, `SELECT COUNT(*) FROM subscriptions WHERE user_id = ? AND status = 'active'`, userID)
	return n > 0, wrap("has active subscription", err)
}

func (s *Store) GetSubscriptionByCode(ctx context.Context, code string) (models.Subscription, error) {
	var sub models.Subscription
	err := s.get(ctx, &sub, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE paystack_subscription_code = ?`, code)
	return sub, wrap("get subscription", err)
}

// UpsertSubscription writes sub keyed by its subscription code. Replaying the
// same values converges to the same row. Empty customer fields and a nil next
// payment date or plan keep what is already stored.
func (s *Store) UpsertSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	if sub.Status == "" {
		sub.Status = models.StatusInactive
	}
	_, err := s.insertID(ctx, `
		INSERT INTO subscriptions (user_id, plan_id, paystack_subscription_code, paystack_customer_code,
			paystack_email, status, next_payment_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (paystack_subscription_code) DO UPDATE SET
			user_id = excluded.user_id,
			plan_id = COALESCE(excluded.plan_id, subscriptions.plan_id),
			paystack_customer_code = CASE WHEN excluded.paystack_customer_code = '' THEN subscriptions.paystack_customer_code ELSE excluded.paystack_customer_code END,
			paystack_email = CASE WHEN excluded.paystack_email = '' THEN subscriptions.paystack_email ELSE excluded.paystack_email END,
			status = excluded.status,
			next_payment_date = COALESCE(excluded.next_payment_date, subscriptions.next_payment_date),
			updated_at = excluded.updated_at
		RETURNING id`,
		sub.UserID, sub.PlanID, sub.PaystackSubscriptionCode, sub.PaystackCustomerCode,
		sub.PaystackEmail, sub.Status, sub.NextPaymentDate, s.now().UTC())
	if err != nil {
		return models.Subscription{}, wrap("upsert subscription", err)
	}
	return s.GetSubscriptionByCode(ctx, sub.PaystackSubscriptionCode)
}
