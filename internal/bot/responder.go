package bot

import (
	"errors"
	"io"

	"github.com/m3rciful/scholarbot/core/telegram/helpers"
	"github.com/m3rciful/scholarbot/core/telegram/keyboard"
	"github.com/m3rciful/scholarbot/internal/flow"

	tele "gopkg.in/telebot.v4"
)

var errNoBot = errors.New("bot: file download unavailable")

// Downloader fetches uploaded files by id. *tele.Bot satisfies it.
type Downloader interface {
	File(file *tele.File) (io.ReadCloser, error)
}

// responder answers one update through the telebot context.
type responder struct {
	c     tele.Context
	files Downloader
}

func (r responder) Send(text string, kb flow.Keyboard) error {
	return helpers.SendLong(r.c, text, markup(kb))
}

func (r responder) Edit(text string, kb flow.Keyboard) error {
	return helpers.EditOrSendMD(r.c, text, markup(kb))
}

func (r responder) Fetch(doc flow.Document) (io.ReadCloser, error) {
	if r.files == nil {
		return nil, errNoBot
	}
	return r.files.File(&tele.File{FileID: doc.FileID})
}

// markup converts a flow keyboard into inline reply markup; nil stays nil.
func markup(kb flow.Keyboard) *tele.ReplyMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]keyboard.InlineBtn, 0, len(kb))
	for _, row := range kb {
		out := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			out = append(out, keyboard.InlineBtn{Text: b.Text, Unique: b.Unique, Data: b.Data, URL: b.URL})
		}
		rows = append(rows, out)
	}
	return keyboard.InlineButtonsRows(rows...)
}

func identityOf(c tele.Context) flow.Identity {
	var id flow.Identity
	if chat := c.Chat(); chat != nil {
		id.ChatID = chat.ID
	}
	if u := c.Sender(); u != nil {
		id.UserID = u.ID
		id.Username = u.Username
		id.FirstName = u.FirstName
	}
	if id.ChatID == 0 {
		id.ChatID = id.UserID
	}
	return id
}

// eventFrom turns an inbound message into a flow event.
func eventFrom(m *tele.Message) (flow.Event, bool) {
	if m == nil {
		return flow.Event{}, false
	}
	if d := m.Document; d != nil {
		return flow.Event{
			Kind: flow.EventDocument,
			Text: m.Caption,
			Document: &flow.Document{
				FileID:   d.FileID,
				FileName: d.FileName,
				MIME:     d.MIME,
				Size:     d.FileSize,
			},
		}, true
	}
	return flow.Event{Kind: flow.EventText, Text: m.Text}, true
}
