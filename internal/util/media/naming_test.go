package media

import "testing"

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		reference string
		clip      string
		want      string
	}{
		{"colon and spaces", 0, "John 3:16", "/lib/videos/sunset.mp4", "0-John316_sunset.mp4"},
		{"trailing space", 4, "Psalm 23:1 ", "beach.mp4", "4-Psalm231_beach.mp4"},
		{"book with number", 12, "1 Corinthians 13:4-7", "x/y/rain.clip.mp4", "12-1Corinthians134-7_rain.clip.mp4"},
		{"empty reference", 1, "", "a.mp4", "1-_a.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputFilename(tt.index, tt.reference, tt.clip); got != tt.want {
				t.Errorf("OutputFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuoteImageBase(t *testing.T) {
	tests := map[string]string{
		"John 3:16":   "John 316",
		"":            "verse",
		"  ":          "verse",
		"Mark 1:1/2 ": "Mark 11_2",
	}
	for in, want := range tests {
		if got := QuoteImageBase(in); got != want {
			t.Errorf("QuoteImageBase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("grace — peace", false); got != "grace - peace" {
		t.Errorf("dash not replaced: %q", got)
	}
	if got := NormalizeText("don't", false); got != "don't" {
		t.Errorf("apostrophe stripped without flag: %q", got)
	}
	if got := NormalizeText("don't", true); got != "dont" {
		t.Errorf("apostrophe kept with flag: %q", got)
	}
}
