package middleware

import tele "gopkg.in/telebot.v4"

const tallyKey = "reply_tally"

// Tally counts what a handler sent back for one update.
type Tally struct {
	Messages  int
	Documents int
	// Keyboards counts replies that carried reply markup.
	Keyboards int
}

func (t *Tally) record(what interface{}, opts []interface{}) {
	switch what.(type) {
	case *tele.Document, tele.Document:
		t.Documents++
	default:
		t.Messages++
	}
	if carriesMarkup(opts) {
		t.Keyboards++
	}
}

func carriesMarkup(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// tallyContext counts successful replies made through the wrapped context.
type tallyContext struct {
	tele.Context
	tally *Tally
}

func (t tallyContext) counted(err error, what interface{}, opts []interface{}) error {
	if err == nil {
		t.tally.record(what, opts)
	}
	return err
}

func (t tallyContext) Send(what interface{}, opts ...interface{}) error {
	return t.counted(t.Context.Send(what, opts...), what, opts)
}

func (t tallyContext) Reply(what interface{}, opts ...interface{}) error {
	return t.counted(t.Context.Reply(what, opts...), what, opts)
}

func (t tallyContext) Edit(what interface{}, opts ...interface{}) error {
	return t.counted(t.Context.Edit(what, opts...), what, opts)
}

func (t tallyContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return t.counted(t.Context.EditOrSend(what, opts...), what, opts)
}

func (t tallyContext) EditOrReply(what interface{}, opts ...interface{}) error {
	return t.counted(t.Context.EditOrReply(what, opts...), what, opts)
}

// MessageMetricsMiddleware attaches a fresh Tally to the update.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		t := &Tally{}
		c.Set(tallyKey, t)
		return next(tallyContext{Context: c, tally: t})
	}
}

// Replies returns the tally of the update; zero when the middleware did not run.
func Replies(c tele.Context) Tally {
	if t, ok := c.Get(tallyKey).(*Tally); ok && t != nil {
		return *t
	}
	return Tally{}
}
