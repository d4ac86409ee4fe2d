package compositor

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FaceSource tells which entry of the fallback chain produced a face.
type FaceSource int

const (
	SourceProfile  FaceSource = iota // the font profile's own file
	SourceFallback                   // the configured fallback font file
	SourceEmbedded                   // Go Regular compiled into the binary
	SourceBitmap                     // basicfont 7x13, cannot fail
)

func (s FaceSource) String() string {
	switch s {
	case SourceProfile:
		return "profile"
	case SourceFallback:
		return "fallback"
	case SourceEmbedded:
		return "embedded"
	default:
		return "bitmap"
	}
}

const defaultFontSize = 48

// LoadFace walks the fallback chain and returns the first face that loads.
// It never fails; the bitmap face is the last resort.
// Every error met along the way is returned in skipped.
func LoadFace(profilePath, fallbackPath string, size int) (face font.Face, src FaceSource, skipped []error) {
	if size <= 0 {
		size = defaultFontSize
	}
	chain := []struct {
		src  FaceSource
		path string
	}{
		{SourceProfile, profilePath},
		{SourceFallback, fallbackPath},
	}
	for _, c := range chain {
		if c.path == "" {
			continue
		}
		f, err := faceFromFile(c.path, size)
		if err == nil {
			return f, c.src, skipped
		}
		skipped = append(skipped, err)
	}
	f, err := faceFromBytes(goregular.TTF, size)
	if err == nil {
		return f, SourceEmbedded, skipped
	}
	skipped = append(skipped, fmt.Errorf("embedded font: %w", err))
	return basicfont.Face7x13, SourceBitmap, skipped
}

func faceFromFile(path string, size int) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	f, err := faceFromBytes(data, size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func faceFromBytes(data []byte, size int) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

const asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// averageLetterWidth is the mean right edge, in pixels, of the ASCII letters.
func averageLetterWidth(face font.Face) float64 {
	var sum float64
	for _, r := range asciiLetters {
		b, _ := font.BoundString(face, string(r))
		sum += float64(b.Max.X) / 64
	}
	return sum / float64(len(asciiLetters))
}
