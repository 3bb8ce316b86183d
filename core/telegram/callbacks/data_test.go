package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		raw, unique, payload string
	}{
		{"\fPAGES|10", "PAGES", "10"},
		{"\fMENU_TUTOR", "MENU_TUTOR", ""},
		{"SELECT_PLAN|3", "SELECT_PLAN", "3"},
		{"\fA|b|c", "A", "b|c"},
		{"", "", ""},
	}
	for _, tc := range cases {
		u, p := Parse(tc.raw)
		assert.Equal(t, tc.unique, u, tc.raw)
		assert.Equal(t, tc.payload, p, tc.raw)
	}
}

func TestSplitPrefersUnique(t *testing.T) {
	u, p := Split(&tele.Callback{Unique: "PAGES", Data: "15"})
	assert.Equal(t, "PAGES", u)
	assert.Equal(t, "15", p)

	u, p = Split(nil)
	assert.Empty(t, u)
	assert.Empty(t, p)
}
