package compositor

import "strings"

// Wrap breaks text into lines of at most width runes, greedily packing
// whitespace-separated words. Words longer than width are split.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var (
		lines []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}
	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > 0 {
			need := len(w)
			if len(cur) > 0 {
				need++
			}
			if len(cur)+need <= width {
				if len(cur) > 0 {
					cur = append(cur, ' ')
				}
				cur = append(cur, w...)
				w = nil
				continue
			}
			if len(w) <= width {
				flush()
				continue
			}
			// Oversized word: fill the rest of the current line with a chunk.
			room := width - len(cur)
			if len(cur) > 0 {
				room--
			}
			if room <= 0 {
				flush()
				continue
			}
			if len(cur) > 0 {
				cur = append(cur, ' ')
			}
			cur = append(cur, w[:room]...)
			w = w[room:]
			flush()
		}
	}
	flush()
	return lines
}
