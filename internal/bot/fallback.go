package bot

import (
	"github.com/m3rciful/scholarbot/core/telegram/ui"
	"github.com/m3rciful/scholarbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

const (
	unknownText     = "I didn't catch that. Use /start to open the menu."
	unknownDocument = "To analyse a document, open 📄 Assignment Helper first and then upload the PDF."
	rateLimitedText = "⏳ You're sending messages too quickly. Please wait a moment."
)

// fallbacks answers updates no route or conversation claimed.
type fallbacks struct {
	app *App
}

var _ ui.FallbackProvider = fallbacks{}

func (f fallbacks) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error {
		return f.app.reply(c).Send(unknownText, flow.Row(flow.MenuButton))
	}
}

func (f fallbacks) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error {
		return f.app.reply(c).Send(unknownDocument, flow.Row(flow.MenuButton))
	}
}

func (f fallbacks) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return f.app.reply(c).Send(staleButtonText, flow.Row(flow.MenuButton))
	}
}

func (f fallbacks) RateLimited() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: rateLimitedText})
		}
		return c.Send(rateLimitedText)
	}
}
