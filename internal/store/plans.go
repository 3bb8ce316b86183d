package store

import (
	"context"
	"errors"

	"github.com/m3rciful/scholarbot/internal/models"
)

const planColumns = `id, name, price, "interval", paystack_plan_code, description, is_active, created_at`

// ActivePlans returns purchasable plans, cheapest first.
func (s *Store) ActivePlans(ctx context.Context) ([]models.PricingPlan, error) {
	var plans []models.PricingPlan
	err := s.selectAll(ctx, &plans, `SELECT `+planColumns+` FROM pricing_plans WHERE is_active = TRUE ORDER BY price, id`)
	return plans, wrap("active plans", err)
}

// AllPlans includes inactive plans.
func (s *Store) AllPlans(ctx context.Context) ([]models.PricingPlan, error) {
	var plans []models.PricingPlan
	err := s.selectAll(ctx, &plans, `SELECT `+planColumns+` FROM pricing_plans ORDER BY id`)
	return plans, wrap("all plans", err)
}

func (s *Store) GetPlan(ctx context.Context, id int64) (models.PricingPlan, error) {
	var p models.PricingPlan
	err := s.get(ctx, &p, `SELECT `+planColumns+` FROM pricing_plans WHERE id = ?`, id)
	return p, wrap("get plan", err)
}

// GetPlanByCode looks a plan up by its Paystack code.
func (s *Store) GetPlanByCode(ctx context.Context, code string) (models.PricingPlan, error) {
	var p models.PricingPlan
	err := s.get(ctx, &p, `SELECT `+planColumns+` FROM pricing_plans WHERE paystack_plan_code = ?`, code)
	return p, wrap("get plan by code", err)
}

func (s *Store) CountPlans(ctx context.Context) (int, error) {
	var n int
	err := s.get(ctx, &n, `SELECT COUNT(*) FROM pricing_plans`)
	return n, wrap("count plans", err)
}

// CreatePlan inserts a plan and returns it as stored.
func (s *Store) CreatePlan(ctx context.Context, p models.PricingPlan) (models.PricingPlan, error) {
	id, err := s.insertID(ctx, `
		INSERT INTO pricing_plans (name, price, "interval", paystack_plan_code, description, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.Name, p.Price, p.Interval, p.PaystackPlanCode, p.Description, p.IsActive)
	if err != nil {
		return models.PricingPlan{}, wrap("create plan", err)
	}
	return s.GetPlan(ctx, id)
}

// UpsertPlanByCode inserts or refreshes a plan keyed by its Paystack code.
// It reports whether a new row was created.
func (s *Store) UpsertPlanByCode(ctx context.Context, p models.PricingPlan) (bool, error) {
	code := p.PlanCode()
	_, err := s.GetPlanByCode(ctx, code)
	switch {
	case err == nil:
		_, err = s.exec(ctx, `
			UPDATE pricing_plans SET name = ?, price = ?, "interval" = ?, description = ?, is_active = ?
			WHERE paystack_plan_code = ?`,
			p.Name, p.Price, p.Interval, p.Description, p.IsActive, code)
		return false, wrap("update plan", err)
	case errors.Is(err, ErrNotFound):
		_, err = s.CreatePlan(ctx, p)
		return err == nil, err
	default:
		return false, err
	}
}
