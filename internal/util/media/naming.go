package media

import (
	"path/filepath"
	"strconv"
	"strings"
)

// ReferenceStem strips colons and trailing whitespace from a reference,
// e.g. "John 3:16 " -> "John 316". Path separators become underscores.
func ReferenceStem(reference string) string {
	s := strings.ReplaceAll(reference, ":", "")
	s = strings.TrimRight(s, " \t\r\n")
	return strings.NewReplacer("/", "_", `\`, "_").Replace(s)
}

// QuoteImageBase is the base name (no extension) of a rendered quote image.
func QuoteImageBase(reference string) string {
	if s := ReferenceStem(reference); s != "" {
		return s
	}
	return "verse"
}

// OutputFilename returns "<index>-<reference without spaces>_<clip base>.mp4".
func OutputFilename(index int, reference, clipPath string) string {
	name := strings.ReplaceAll(ReferenceStem(reference), " ", "")
	clip := filepath.Base(clipPath)
	clip = strings.TrimSuffix(clip, filepath.Ext(clip))
	return strconv.Itoa(index) + "-" + name + "_" + clip + ".mp4"
}

// NormalizeText replaces glyphs most display fonts lack.
// When stripApostrophes is set, apostrophes are removed as well.
func NormalizeText(text string, stripApostrophes bool) string {
	text = strings.ReplaceAll(text, "—", "-")
	if stripApostrophes {
		text = strings.ReplaceAll(text, "'", "")
		text = strings.ReplaceAll(text, "’", "")
	}
	return text
}
