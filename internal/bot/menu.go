package bot

import (
	"fmt"
	"log/slog"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/core/telegram/format"
	"github.com/m3rciful/scholarbot/core/telegram/helpers"
	"github.com/m3rciful/scholarbot/internal/features"
	"github.com/m3rciful/scholarbot/internal/flow"
	"github.com/m3rciful/scholarbot/internal/models"

	tele "gopkg.in/telebot.v4"
)

const (
	welcomeText = "👋 Welcome %s!\n\n" +
		"I'm your academic assistant. I can help with course advice, assignments, " +
		"projects and tutoring.\n\nChoose an option below:"
	helpText = "ℹ️ **How to use this bot**\n\n" +
		"🎓 **Course Advisor**: admission requirements for any course.\n" +
		"📄 **Assignment Helper**: analysis of a topic or an uploaded PDF brief, with follow-ups.\n" +
		"📝 **Create Project**: a guided project with AI-written chapters.\n" +
		"🧠 **Mini Tutor**: ask any academic question.\n" +
		"💎 **Subscribe**: unlock premium features.\n\n" +
		"Commands: /start opens the menu, /cancel ends the current conversation, /help shows this message."
	cancelledText = "Session cancelled."
	menuText      = "🏠 **Main Menu**\n\nChoose an option below:"
)

// mainMenu lists the features; the admin button is shown to the admin only.
func mainMenu(isAdmin bool) flow.Keyboard {
	kb := flow.Keyboard{
		{{Text: "🎓 Course Advisor", Unique: features.MenuCourseAdvisor}},
		{{Text: "📄 Assignment Helper", Unique: features.MenuAssignment}},
		{{Text: "📝 Create Project", Unique: features.MenuProject}},
		{{Text: "🧠 Mini Tutor", Unique: features.MenuTutor}},
		{{Text: "💎 Subscribe", Unique: features.MenuSubscribe}, {Text: "ℹ️ Help", Unique: features.MenuHelp}},
	}
	if isAdmin {
		kb = append(kb, []flow.Button{{Text: "🛠 Admin", Unique: features.MenuAdmin}})
	}
	return kb
}

func welcome(u *tele.User) string {
	name := "there"
	if u != nil && u.FirstName != "" {
		name = u.FirstName
	}
	return fmt.Sprintf(welcomeText, format.Escape(name))
}

func (a *App) onStart(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	id := identityOf(c)
	if _, err := a.flows.Cancel(ctx, id); err != nil {
		return err
	}
	user, err := a.store.EnsureUser(ctx, models.User{
		TelegramID: id.UserID,
		Username:   id.Username,
		FirstName:  id.FirstName,
		IsAdmin:    a.gate.IsAdmin(id.UserID),
	})
	if err != nil {
		logger.Error(ctx, logger.CompStore, "user.ensure_failed", slog.String("err", err.Error()))
		return helpers.SendText(c, flow.ErrorText)
	}
	logger.Debug(ctx, logger.CompTelegram, "start",
		slog.Int64("user_id", user.ID),
		slog.Bool("admin", user.IsAdmin),
	)
	return a.reply(c).Send(welcome(c.Sender()), mainMenu(a.gate.IsAdmin(id.UserID)))
}

func (a *App) onHelp(c tele.Context) error {
	return a.reply(c).Edit(helpText, flow.Row(flow.MenuButton))
}

func (a *App) onCancel(c tele.Context) error {
	if _, err := a.flows.Cancel(helpers.BuildContext(c), identityOf(c)); err != nil {
		return err
	}
	return a.reply(c).Send(cancelledText, flow.Row(flow.MenuButton))
}

// onBackToMenu leaves any conversation and shows the menu in place.
func (a *App) onBackToMenu(c tele.Context) error {
	id := identityOf(c)
	if _, err := a.flows.Cancel(helpers.BuildContext(c), id); err != nil {
		return err
	}
	return a.reply(c).Edit(menuText, mainMenu(a.gate.IsAdmin(id.UserID)))
}

func (a *App) reply(c tele.Context) responder {
	return responder{c: c, files: a.files()}
}
