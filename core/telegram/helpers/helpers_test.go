package helpers

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/core/telegram/format"
)

// recorder keeps every outgoing send; Get and Set reach the wrapped context.
type recorder struct {
	tele.Context
	sent []sentMessage
	// rejectMarkdown fails Markdown sends the way Telegram does for bad entities.
	rejectMarkdown bool
}

type sentMessage struct {
	text string
	opts tele.SendOptions
}

func (r *recorder) Send(what interface{}, opts ...interface{}) error {
	var o tele.SendOptions
	if len(opts) > 0 {
		if so, ok := opts[0].(*tele.SendOptions); ok && so != nil {
			o = *so
		}
	}
	if r.rejectMarkdown && o.ParseMode == tele.ModeMarkdown {
		return errors.New("telegram: Bad Request: can't parse entities: unclosed entity (400)")
	}
	r.sent = append(r.sent, sentMessage{text: what.(string), opts: o})
	return nil
}

func newRecorder(t *testing.T) *recorder {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	c := b.NewContext(tele.Update{
		ID: 11,
		Message: &tele.Message{
			Text:   "chapter 2",
			Sender: &tele.User{ID: 42},
			Chat:   &tele.Chat{ID: 42, Type: tele.ChatPrivate},
		},
	})
	return &recorder{Context: c}
}

func TestSendLongPutsMarkupOnLastChunk(t *testing.T) {
	SetDispatcher(nil)
	r := newRecorder(t)
	rm := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{{{Text: "Menu", Unique: "BACK_TO_MENU"}}}}
	text := strings.Repeat("literature review ", 600)

	require.NoError(t, SendLong(r, text, rm))

	require.Greater(t, len(r.sent), 1)
	for i, m := range r.sent {
		assert.LessOrEqual(t, format.Length(m.text), format.MaxMessageLength)
		assert.Equal(t, tele.ModeMarkdown, m.opts.ParseMode)
		if i == len(r.sent)-1 {
			assert.Same(t, rm, m.opts.ReplyMarkup)
		} else {
			assert.Nil(t, m.opts.ReplyMarkup, "chunk %d", i)
		}
	}
}

func TestSendLongFallsBackToPlainText(t *testing.T) {
	SetDispatcher(nil)
	r := newRecorder(t)
	r.rejectMarkdown = true
	rm := &tele.ReplyMarkup{}

	require.NoError(t, SendLong(r, "**Abstract** uses `code", rm))

	require.Len(t, r.sent, 1)
	assert.Equal(t, "*Abstract* uses code", r.sent[0].text)
	assert.Equal(t, tele.ModeDefault, r.sent[0].opts.ParseMode)
	assert.Same(t, rm, r.sent[0].opts.ReplyMarkup)
}

func TestBuildContextIsCachedPerUpdate(t *testing.T) {
	r := newRecorder(t)

	rid := RID(r)
	require.NotEmpty(t, rid)
	assert.Equal(t, rid, RID(r))

	ctx := BuildContext(r)
	assert.Equal(t, rid, logger.RIDFrom(ctx))
	assert.Equal(t, int64(42), logger.ChatIDFrom(ctx))
	assert.Equal(t, ctx, BuildContext(r))

	tagged := WithHandler(r, "command.start")
	got, ok := ContextFrom(r)
	require.True(t, ok)
	assert.Equal(t, tagged, got)
}
