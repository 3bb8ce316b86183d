package format

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MarkdownV1 = 1
	MarkdownV2 = 2
)

var (
	mdV1Re = regexp.MustCompile("([_*`\\[])")
	mdV2Re = regexp.MustCompile("([_*\\[\\]()~`>#+\\-=|{}.!\\\\])")
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
func EscapeMarkdown(text string, version int) (string, error) {
	switch version {
	case MarkdownV1:
		return mdV1Re.ReplaceAllString(text, `\$1`), nil
	case MarkdownV2:
		return mdV2Re.ReplaceAllString(text, `\$1`), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// Escape is EscapeMarkdown for legacy Markdown, used when echoing user input
// inside bot-authored Markdown.
func Escape(text string) string {
	s, _ := EscapeMarkdown(text, MarkdownV1)
	return s
}

// StripMarkdown removes legacy Markdown markers so text can be resent without a parse mode.
func StripMarkdown(text string) string {
	return strings.NewReplacer("**", "", "__", "", "`", "").Replace(text)
}

// Legacy rewrites CommonMark emphasis (**bold**, __italic__) into the single
// markers understood by Telegram's legacy Markdown mode.
func Legacy(text string) string {
	return strings.NewReplacer("**", "*", "__", "_").Replace(text)
}
