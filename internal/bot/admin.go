package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/core/telegram/format"
	"github.com/m3rciful/scholarbot/core/telegram/helpers"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/models"
	"github.com/m3rciful/scholarbot/internal/payment"

	tele "gopkg.in/telebot.v4"
)

// Admin callback tokens.
const (
	AdminDashboard      = "ADMIN_DASHBOARD"
	AdminUsers          = "ADMIN_USERS"
	AdminPricing        = "ADMIN_PRICING"
	AdminSyncPlans      = "ADMIN_SYNC_PLANS"
	AdminPayments       = "ADMIN_PAYMENTS"
	AdminTogglePayments = "ADMIN_TOGGLE_PAYMENTS"
	AdminClose          = "ADMIN_CLOSE"

	recentUsers = 10
)

var adminBack = flow.Button{Text: "🔙 Back to Admin", Unique: "MENU_ADMIN"}

// AdminStore is the read side of the admin panel.
type AdminStore interface {
	DashboardStats(ctx context.Context) (models.DashboardStats, error)
	RecentUsers(ctx context.Context, limit int) ([]models.User, error)
	AllPlans(ctx context.Context) ([]models.PricingPlan, error)
}

// PlanSyncer pulls plans from the payment provider.
type PlanSyncer interface {
	SyncPlans(ctx context.Context) (payment.SyncResult, error)
}

func adminPanel() flow.Keyboard {
	return flow.Keyboard{
		{{Text: "📊 Dashboard", Unique: AdminDashboard}, {Text: "👥 Users", Unique: AdminUsers}},
		{{Text: "💰 Pricing", Unique: AdminPricing}, {Text: "💳 Payments", Unique: AdminPayments}},
		{{Text: "✖️ Close", Unique: AdminClose}},
	}
}

func onOff(on bool) string {
	if on {
		return "✅ Enabled"
	}
	return "❌ Disabled"
}

func dashboardText(s models.DashboardStats, paymentsOn bool) string {
	return fmt.Sprintf("📊 **Dashboard**\n\n"+
		"Total users: %d\nActive subscribers: %d\nActive plans: %d\nPayments: %s",
		s.Users, s.ActiveSubscribers, s.ActivePlans, onOff(paymentsOn))
}

func usersText(users []models.User) string {
	if len(users) == 0 {
		return "👥 **Recent Users**\n\nNo users yet."
	}
	var b strings.Builder
	b.WriteString("👥 **Recent Users**\n\n")
	for i, u := range users {
		fmt.Fprintf(&b, "%d. %s (%d) joined %s\n", i+1, format.Escape(u.DisplayName()), u.TelegramID, u.CreatedAt.Format("2006-01-02"))
	}
	return b.String()
}

func pricingText(plans []models.PricingPlan) string {
	if len(plans) == 0 {
		return "💰 **Pricing Plans**\n\nNo plans configured."
	}
	var b strings.Builder
	b.WriteString("💰 **Pricing Plans**\n\n")
	for _, p := range plans {
		state := "active"
		if !p.IsActive {
			state = "inactive"
		}
		fmt.Fprintf(&b, "• %s: %s / %s (%s)\n", format.Escape(p.Name), payment.FormatNaira(p.Price), p.Interval, state)
	}
	return b.String()
}

func paymentsText(on bool) string {
	return fmt.Sprintf("💳 **Payments**\n\nStatus: %s", onOff(on))
}

func paymentsPanel(on bool) flow.Keyboard {
	label := "❌ Disable Payments"
	if !on {
		label = "✅ Enable Payments"
	}
	return flow.Keyboard{{{Text: label, Unique: AdminTogglePayments}}, {adminBack}}
}

// adminOnly runs the admin guard before next; a stranger never reaches a stats query.
func (a *App) adminOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ok, err := a.gate.RequireAdmin(helpers.BuildContext(c), identityOf(c), a.reply(c))
		if err != nil || !ok {
			return err
		}
		return next(c)
	}
}

func (a *App) onAdmin(c tele.Context) error {
	return a.reply(c).Edit("🛠 **Admin Panel**\n\nChoose an option:", adminPanel())
}

func (a *App) onAdminDashboard(c tele.Context) error {
	stats, err := a.admin.DashboardStats(helpers.BuildContext(c))
	if err != nil {
		return a.adminFailed(c, "dashboard", err)
	}
	return a.reply(c).Edit(dashboardText(stats, a.payments.Enabled()), flow.Row(adminBack))
}

func (a *App) onAdminUsers(c tele.Context) error {
	users, err := a.admin.RecentUsers(helpers.BuildContext(c), recentUsers)
	if err != nil {
		return a.adminFailed(c, "users", err)
	}
	return a.reply(c).Edit(usersText(users), flow.Row(adminBack))
}

func (a *App) onAdminPricing(c tele.Context) error {
	plans, err := a.admin.AllPlans(helpers.BuildContext(c))
	if err != nil {
		return a.adminFailed(c, "pricing", err)
	}
	kb := flow.Keyboard{{{Text: "🔄 Sync Plans", Unique: AdminSyncPlans}}, {adminBack}}
	return a.reply(c).Edit(pricingText(plans), kb)
}

func (a *App) onAdminSyncPlans(c tele.Context) error {
	res, err := a.syncer.SyncPlans(helpers.BuildContext(c))
	if err != nil {
		return a.adminFailed(c, "sync_plans", err)
	}
	text := fmt.Sprintf("🔄 **Plans synced**\n\nCreated: %d\nUpdated: %d\nSkipped: %d", res.Created, res.Updated, res.Skipped)
	return a.reply(c).Edit(text, flow.Keyboard{{{Text: "💰 Pricing", Unique: AdminPricing}}, {adminBack}})
}

func (a *App) onAdminPayments(c tele.Context) error {
	on := a.payments.Enabled()
	return a.reply(c).Edit(paymentsText(on), paymentsPanel(on))
}

func (a *App) onAdminTogglePayments(c tele.Context) error {
	on := a.payments.Toggle()
	logger.Info(helpers.BuildContext(c), logger.CompAdminTool, "payments.toggled", slog.Bool("enabled", on))
	return a.reply(c).Edit(paymentsText(on), paymentsPanel(on))
}

func (a *App) onAdminClose(c tele.Context) error {
	return a.reply(c).Edit(menuText, mainMenu(true))
}

func (a *App) adminFailed(c tele.Context, action string, err error) error {
	logger.Error(helpers.BuildContext(c), logger.CompAdminTool, "action.failed",
		slog.String("action", action),
		slog.String("err", err.Error()),
	)
	return a.reply(c).Edit(flow.ErrorText, flow.Row(adminBack))
}
