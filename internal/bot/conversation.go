package bot

import (
	"context"

	"github.com/m3rciful/scholarbot/core/telegram/callbacks"
	"github.com/m3rciful/scholarbot/core/telegram/helpers"
	"github.com/m3rciful/scholarbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

const (
	staleButtonText = "This button is no longer active. Use /start to open the menu."
	busyButtonText  = "That button belongs to an earlier step. Answer the current question or go back to the menu."
)

// conversation feeds text and documents to the active flow session.
type conversation struct {
	app *App
}

// Handle implements router.Conversation.
func (cv conversation) Handle(c tele.Context) (bool, error) {
	ev, ok := eventFrom(c.Message())
	if !ok {
		return false, nil
	}
	return cv.app.flows.Dispatch(helpers.BuildContext(c), identityOf(c), ev, cv.app.reply(c))
}

// enter starts feature from its menu button.
func (a *App) enter(feature string) tele.HandlerFunc {
	return func(c tele.Context) error {
		return a.flows.Enter(helpers.BuildContext(c), feature, identityOf(c), a.reply(c))
	}
}

// flowButton dispatches an in-conversation button. A press that no live
// session accepts is answered as stale, or as out of step when a session is
// still waiting for something else.
func (a *App) flowButton(kind flow.EventKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		id := identityOf(c)
		ev := flow.Event{Kind: kind, Payload: callbacks.Payload(c)}
		handled, err := a.flows.Dispatch(ctx, id, ev, a.reply(c))
		if err != nil || handled {
			return err
		}
		return a.reply(c).Send(a.staleText(ctx, id), flow.Row(flow.MenuButton))
	}
}

func (a *App) staleText(ctx context.Context, id flow.Identity) string {
	if _, live, err := a.flows.Active(ctx, id); err == nil && live {
		return busyButtonText
	}
	return staleButtonText
}
