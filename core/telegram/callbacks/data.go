package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Parse splits Telebot's "\f<unique>|<payload>" callback encoding.
// Plain data without the form-feed prefix is accepted as well.
func Parse(raw string) (unique, payload string) {
	raw = strings.TrimPrefix(raw, "\f")
	parts := strings.SplitN(raw, "|", 2)
	unique = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		payload = parts[1]
	}
	return unique, payload
}

// Split returns the routing key and payload of cb.
func Split(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return Parse(cb.Data)
}

// Key returns the callback unique, parsing it from Data when telebot left it empty.
func Key(c tele.Context) string {
	k, _ := Split(c.Callback())
	return k
}

// Payload returns the part after '|'.
func Payload(c tele.Context) string {
	_, p := Split(c.Callback())
	return p
}

// PayloadInt64 parses the callback payload as int64.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(Payload(c), 10, 64)
}

// PayloadInt parses the callback payload as int.
func PayloadInt(c tele.Context) (int, error) {
	return strconv.Atoi(Payload(c))
}
