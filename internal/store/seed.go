package store

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/scholarbot/core/bootstrap"
	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/internal/models"
)

// DefaultPlans are offered until plans are synced from Paystack.
func DefaultPlans() []models.PricingPlan {
	return []models.PricingPlan{
		{Name: "Weekly Access", Price: 50000, Interval: "weekly", Description: "Seven days of premium features", IsActive: true},
		{Name: "Monthly Premium", Price: 150000, Interval: "monthly", Description: "Unlimited assignments, projects and tutoring", IsActive: true},
		{Name: "Semester Pass", Price: 600000, Interval: "quarterly", Description: "Four months of premium features", IsActive: true},
	}
}

// PlanSeeder inserts plans when the pricing table is empty. It never touches existing rows.
func PlanSeeder(plans []models.PricingPlan) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		s := New(db)
		n, err := s.CountPlans(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Debug(ctx, logger.CompSeed, "plans.skip", slog.Int("existing", n))
			return nil
		}
		for _, p := range plans {
			if _, err := s.CreatePlan(ctx, p); err != nil {
				return err
			}
		}
		logger.Info(ctx, logger.CompSeed, "plans.seeded", slog.Int("count", len(plans)))
		return nil
	})
}
