package store

import (
	"context"

	"github.com/m3rciful/scholarbot/internal/models"
)

const userColumns = `id, telegram_id, username, first_name, is_admin, created_at`

// EnsureUser creates the user on first contact and refreshes the profile
// fields afterwards. The admin flag is sticky once set.
func (s *Store) EnsureUser(ctx context.Context, u models.User) (models.User, error) {
	_, err := s.insertID(ctx, `
		INSERT INTO users (telegram_id, username, first_name, is_admin)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			is_admin = users.is_admin OR excluded.is_admin
		RETURNING id`,
		u.TelegramID, u.Username, u.FirstName, u.IsAdmin)
	if err != nil {
		return models.User{}, wrap("ensure user", err)
	}
	return s.GetUserByTelegramID(ctx, u.TelegramID)
}

// GetUserByTelegramID returns ErrNotFound for unknown ids.
func (s *Store) GetUserByTelegramID(ctx context.Context, telegramID int64) (models.User, error) {
	var u models.User
	err := s.get(ctx, &u, `SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)
	return u, wrap("get user", err)
}

// RecentUsers lists the newest users first.
func (s *Store) RecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.selectAll(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	return users, wrap("recent users", err)
}

// DashboardStats aggregates the admin overview in one round trip.
func (s *Store) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var st models.DashboardStats
	err := s.get(ctx, &st, `
		SELECT
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM subscriptions WHERE status = 'active') AS active_subscribers,
			(SELECT COUNT(*) FROM pricing_plans WHERE is_active = TRUE) AS active_plans`)
	return st, wrap("dashboard stats", err)
}
