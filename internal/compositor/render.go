// Package compositor renders quote text into a transparent PNG with a soft
// drop shadow, sized for overlay on a vertical video.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"versereel/internal/model"
	"versereel/internal/util"
	"versereel/internal/util/media"
)

const (
	// ImageDir is the sub-folder of a customer folder holding quote images.
	ImageDir = "verse_images"

	wrapFactor  = 0.718
	lineSpacing = 4
)

var shadowColor = color.NRGBA{R: 0, G: 0, B: 0, A: 80}

// Compositor renders quote images.
type Compositor struct {
	fallbackFont string
	textColor    color.Color
	logger       *zap.Logger
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithFallbackFont sets the font file tried after the profile's own font.
func WithFallbackFont(path string) Option {
	return func(c *Compositor) {
		c.fallbackFont = path
	}
}

// WithTextColor sets the colour used for profiles that name none.
func WithTextColor(c color.Color) Option {
	return func(comp *Compositor) {
		comp.textColor = c
	}
}

// ParseColor reads a hex colour such as "#ffcc00", "ffcc00" or "#fc0".
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("parse color %q: %w", s, err)
	}
	return c, nil
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compositor) {
		c.logger = l
	}
}

// New returns a Compositor.
func New(opts ...Option) *Compositor {
	c := &Compositor{}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.textColor == nil {
		c.textColor = color.White
	}
	return c
}

func (c *Compositor) colorFor(profile model.FontProfile) color.Color {
	if profile.Color == "" {
		return c.textColor
	}
	col, err := ParseColor(profile.Color)
	if err != nil {
		c.logger.Warn("bad text color", zap.String("font", profile.Path), zap.Error(err))
		return c.textColor
	}
	return col
}

// Render lays text out in the profile's colour on a transparent canvas, crops it to the drawn glyphs
// and saves it under outDir/verse_images. The returned height never exceeds
// canvas.Y. Font problems never fail a render; only invalid canvases and I/O do.
func (c *Compositor) Render(text, reference string, profile model.FontProfile, canvas image.Point, outDir string) (model.RenderedQuote, error) {
	if canvas.X <= 0 || canvas.Y <= 0 {
		return model.RenderedQuote{}, fmt.Errorf("invalid canvas %dx%d", canvas.X, canvas.Y)
	}

	face, src, skipped := LoadFace(profile.Path, c.fallbackFont, profile.Size)
	defer face.Close()
	if len(skipped) > 0 {
		c.logger.Warn("font fallback",
			zap.String("font", profile.Path),
			zap.Stringer("source", src),
			zap.Error(errors.Join(skipped...)),
		)
	}

	maxChars := profile.MaxChars
	if avg := averageLetterWidth(face); avg > 0 {
		if n := int(float64(canvas.X) * wrapFactor / avg); n > maxChars {
			maxChars = n
		}
	}
	lines := Wrap(media.NormalizeText(text, profile.StripApostrophes), maxChars)

	bounds := image.Rect(0, 0, canvas.X, canvas.Y)
	shadow := image.NewRGBA(bounds)
	fg := image.NewRGBA(bounds)
	drawLines(shadow, face, lines, shadowColor, image.Pt(-1, 4))
	drawLines(fg, face, lines, c.colorFor(profile), image.Point{})

	crop := opaqueBounds(fg)
	if crop.Empty() {
		crop = bounds
	}
	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(out, out.Bounds(), shadow, crop.Min, draw.Src)
	draw.Draw(out, out.Bounds(), fg, crop.Min, draw.Over)

	path, err := c.save(out, reference, outDir)
	if err != nil {
		return model.RenderedQuote{}, err
	}
	c.logger.Debug("quote rendered",
		zap.String("path", path),
		zap.Int("lines", len(lines)),
		zap.Int("max_chars", maxChars),
		zap.Int("height", out.Bounds().Dy()),
	)
	return model.RenderedQuote{Path: path, Height: out.Bounds().Dy()}, nil
}

// drawLines centers each line horizontally and the whole block vertically.
func drawLines(dst *image.RGBA, face font.Face, lines []string, c color.Color, offset image.Point) {
	if len(lines) == 0 {
		return
	}
	m := face.Metrics()
	lineH := m.Height.Ceil()
	ascent := m.Ascent.Ceil()
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	total := len(lines)*lineH + (len(lines)-1)*lineSpacing
	top := (h - total) / 2

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	for i, line := range lines {
		lw := d.MeasureString(line).Ceil()
		x := (w-lw)/2 + offset.X
		y := top + i*(lineH+lineSpacing) + ascent + offset.Y
		d.Dot = fixed.P(x, y)
		d.DrawString(line)
	}
}

// opaqueBounds returns the smallest rectangle holding every non-transparent pixel.
func opaqueBounds(img *image.RGBA) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[(y-b.Min.Y)*img.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			if row[(x-b.Min.X)*4+3] == 0 {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

func (c *Compositor) save(img image.Image, reference, outDir string) (string, error) {
	dir := filepath.Join(outDir, ImageDir)
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("ensure image dir: %w", err)
	}
	base := media.QuoteImageBase(reference)
	for {
		path, err := util.NextFreePath(dir, base, ".png")
		if err != nil {
			return "", fmt.Errorf("pick image name: %w", err)
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create image: %w", err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close image: %w", err)
		}
		return path, nil
	}
}
