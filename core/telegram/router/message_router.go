package router

import (
	"time"

	tg "github.com/m3rciful/scholarbot/core/telegram"
	tghelpers "github.com/m3rciful/scholarbot/core/telegram/helpers"
	"github.com/m3rciful/scholarbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation consumes free text and documents that belong to an active
// multi-step conversation. Handle reports false when no conversation claimed
// the update so routing can continue with commands and fallbacks.
type Conversation interface {
	Handle(c tele.Context) (bool, error)
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing.
// Order: active conversation, registered command lookup, registry fallback, UnknownText.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if conv != nil {
			tghelpers.WithHandler(c, "conversation")
			consumed, err := conv.Handle(c)
			if consumed || err != nil {
				logHandlerSummary(c, "conversation", start, "", "", err)
				return err
			}
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil && !cmd.AdminOnly {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if conv != nil {
			tghelpers.WithHandler(c, "conversation_document")
			consumed, err := conv.Handle(c)
			if consumed || err != nil {
				logHandlerSummary(c, "conversation_document", start, "", "", err)
				return err
			}
		}
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
