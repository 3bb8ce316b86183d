package format

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitShortTextUntouched(t *testing.T) {
	assert.Equal(t, []string{"hello"}, Split("hello", MaxMessageLength))
	assert.Equal(t, []string{""}, Split("", MaxMessageLength))
}

func TestSplitPrefersNewlines(t *testing.T) {
	para := strings.Repeat("a", 3000)
	text := para + "\n" + para + "\n" + para

	chunks := Split(text, MaxMessageLength)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Equal(t, para, c)
	}
}

func TestSplitEveryChunkWithinLimit(t *testing.T) {
	words := strings.Repeat("word ", 3000)
	chunks := Split(words, MaxMessageLength)
	require.GreaterOrEqual(t, len(chunks), 2)
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), MaxMessageLength, "chunk %d", i)
		assert.False(t, strings.HasPrefix(c, " "), "chunk %d starts with separator", i)
	}
	assert.Equal(t, strings.TrimSpace(words), strings.TrimSpace(strings.Join(chunks, " ")))
}

func TestSplitHardCutsUnbrokenText(t *testing.T) {
	text := strings.Repeat("é", MaxMessageLength*2+10)
	chunks := Split(text, MaxMessageLength)
	require.Len(t, chunks, 3)
	assert.Equal(t, MaxMessageLength, utf8.RuneCountInString(chunks[0]))
	assert.Equal(t, 10, utf8.RuneCountInString(chunks[2]))
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `snake\_case \*bold\*`, Escape("snake_case *bold*"))
	v2, err := EscapeMarkdown("1.5 (approx)", MarkdownV2)
	require.NoError(t, err)
	assert.Equal(t, `1\.5 \(approx\)`, v2)
	_, err = EscapeMarkdown("x", 3)
	assert.Error(t, err)
}

func TestLegacy(t *testing.T) {
	assert.Equal(t, "*Admission Guide: Law*\n\n_note_", Legacy("**Admission Guide: Law**\n\n__note__"))
	assert.Equal(t, "plain", Legacy("plain"))
}

func TestSplitCountsUTF16Units(t *testing.T) {
	assert.Equal(t, 2, Length("📘"))
	assert.Equal(t, 3, Length("a📘"))

	text := strings.Repeat("📘 ", 3000)
	chunks := Split(text, MaxMessageLength)
	require.GreaterOrEqual(t, len(chunks), 3)
	for i, c := range chunks {
		assert.LessOrEqual(t, Length(c), MaxMessageLength, "chunk %d", i)
	}
	assert.Equal(t, text, strings.Join(chunks, " "))
}
