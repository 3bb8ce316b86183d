package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsRows(t *testing.T) {
	m := InlineButtonsRows(
		[]InlineBtn{{Text: "5", Unique: "PAGES", Data: "5"}, {Text: "10", Unique: "PAGES", Data: "10"}},
		nil,
		[]InlineBtn{{Text: "Pay", URL: "https://checkout.example/abc"}},
	)
	require.NotNil(t, m)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Equal(t, "PAGES", m.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "5", m.InlineKeyboard[0][0].Data)
	assert.Equal(t, "https://checkout.example/abc", m.InlineKeyboard[1][0].URL)
	assert.Empty(t, m.InlineKeyboard[1][0].Data)
}

func TestInlineButtonsNPerRow(t *testing.T) {
	btns := []InlineBtn{{Text: "a", Unique: "A"}, {Text: "b", Unique: "B"}, {Text: "c", Unique: "C"}}
	m := InlineButtonsNPerRow(btns, 2)
	require.Len(t, m.InlineKeyboard, 2)
	assert.Len(t, m.InlineKeyboard[0], 2)
	assert.Len(t, m.InlineKeyboard[1], 1)

	assert.Nil(t, InlineButtonsRows())
}
