package format

import "unicode/utf16"

// MaxMessageLength is Telegram's ceiling for a single text message, counted
// in UTF-16 code units.
const MaxMessageLength = 4096

// Length returns the size of s as Telegram counts it: characters outside the
// basic multilingual plane, emoji included, take two units.
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// window returns how many runes of rest fit into limit units.
func window(rest []rune, limit int) int {
	units := 0
	for i, r := range rest {
		units += runeUnits(r)
		if units > limit {
			return i
		}
	}
	return len(rest)
}

// Split breaks text into ordered chunks of at most limit UTF-16 units. A chunk
// ends at the last newline inside the window when there is one, otherwise at
// the last space, otherwise exactly at the limit. Text within the limit is
// returned as is.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}
	if Length(text) <= limit {
		return []string{text}
	}

	var chunks []string
	rest := []rune(text)
	for {
		n := window(rest, limit)
		if n == len(rest) {
			break
		}
		if n == 0 {
			n = 1
		}
		head := rest[:n]
		cut := lastIndex(head, '\n')
		if cut <= 0 {
			cut = lastIndex(head, ' ')
		}
		if cut > 0 {
			head = head[:cut]
		}
		chunks = append(chunks, string(head))

		rest = rest[len(head):]
		// drop the separator the chunk was cut on
		if cut > 0 && len(rest) > 0 && (rest[0] == '\n' || rest[0] == ' ') {
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		chunks = append(chunks, string(rest))
	}
	return chunks
}

func lastIndex(rs []rune, sep rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == sep {
			return i
		}
	}
	return -1
}
