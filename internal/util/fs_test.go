package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNextFreePath(t *testing.T) {
	dir := t.TempDir()

	p, err := NextFreePath(dir, "John 316", ".png")
	if err != nil {
		t.Fatalf("NextFreePath() error: %v", err)
	}
	if want := filepath.Join(dir, "John 316.png"); p != want {
		t.Fatalf("first path = %q, want %q", p, want)
	}

	for i, want := range []string{"John 316-1.png", "John 316-2.png", "John 316-3.png"} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		p, err = NextFreePath(dir, "John 316", ".png")
		if err != nil {
			t.Fatalf("NextFreePath() #%d error: %v", i, err)
		}
		if filepath.Base(p) != want {
			t.Errorf("NextFreePath() #%d = %q, want %q", i, filepath.Base(p), want)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "untitled"},
		{"acme corp", "acme_corp"},
		{"../etc/passwd", "etc_passwd"},
		{"a:b*c", "a_b_c"},
		{"___", "untitled"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
