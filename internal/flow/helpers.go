package flow

import (
	"strings"
	"unicode"

	"github.com/m3rciful/scholarbot/internal/research"
)

func userMsg(text string) research.Message {
	return research.Message{Role: research.RoleUser, Content: text}
}

// AppendTurn records a question and its answer in history.
func AppendTurn(history []research.Message, question, answer string) []research.Message {
	return append(history,
		userMsg(question),
		research.Message{Role: research.RoleAssistant, Content: answer},
	)
}

// HasWords reports whether text contains at least one letter or digit, so
// blank and emoji-only messages can be re-asked.
func HasWords(text string) bool {
	return strings.IndexFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

// Preview cuts text to at most n runes.
func Preview(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}
