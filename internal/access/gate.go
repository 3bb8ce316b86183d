// Package access implements the admin and subscription guards.
package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/models"
	"github.com/m3rciful/scholarbot/internal/payment"
	"github.com/m3rciful/scholarbot/internal/store"
)

const (
	DeniedText     = "⛔ Access Denied. This command is for administrators only."
	StartFirstText = "Please /start the bot first."
	UpsellText     = "💎 **Premium Feature**\n\nThis feature is available to subscribers only. " +
		"Subscribe to unlock assignments, projects and more."
)

// SubscribeButton opens the plan list.
var SubscribeButton = flow.Button{Text: "💎 Subscribe Now", Unique: "MENU_SUBSCRIBE"}

// Users is the store view the gate needs.
type Users interface {
	GetUserByTelegramID(ctx context.Context, telegramID int64) (models.User, error)
	HasActiveSubscription(ctx context.Context, userID int64) (bool, error)
}

type Gate struct {
	adminID  int64
	users    Users
	payments *payment.Switch
}

func NewGate(adminID int64, users Users, payments *payment.Switch) *Gate {
	return &Gate{adminID: adminID, users: users, payments: payments}
}

// IsAdmin compares id with the configured admin id only.
func (g *Gate) IsAdmin(id int64) bool {
	return g.adminID != 0 && id == g.adminID
}

// RequireAdmin is a flow.Guard for admin-only conversations.
func (g *Gate) RequireAdmin(ctx context.Context, id flow.Identity, r flow.Responder) (bool, error) {
	if g.IsAdmin(id.UserID) {
		return true, nil
	}
	logger.Info(ctx, logger.CompAccess, "admin.denied", slog.Int64("user_id", id.UserID))
	return false, r.Send(DeniedText, nil)
}

// RequireSubscription is a flow.Guard. It passes everyone while payments are
// switched off. A subscription counts when its status is active; the next
// payment date is not consulted.
func (g *Gate) RequireSubscription(ctx context.Context, id flow.Identity, r flow.Responder) (bool, error) {
	if g.payments == nil || !g.payments.Enabled() {
		return true, nil
	}
	u, err := g.users.GetUserByTelegramID(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return false, r.Send(StartFirstText, nil)
	}
	if err != nil {
		return false, err
	}
	ok, err := g.users.HasActiveSubscription(ctx, u.ID)
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Info(ctx, logger.CompAccess, "subscription.required", slog.Int64("user_id", id.UserID))
		return false, r.Send(UpsellText, flow.Keyboard{{SubscribeButton}, {flow.MenuButton}})
	}
	return true, nil
}
