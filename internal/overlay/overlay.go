// Package overlay computes where the logo, quote image and reference line sit
// inside a 1080x1920 frame.
package overlay

const (
	// QuoteTop is the y offset of the rendered quote image.
	QuoteTop = 800
	// ReferenceGap is the space between the quote image and the reference line.
	ReferenceGap = 75
	// ReferenceMaxY is the lowest y the reference line may start at.
	ReferenceMaxY = 1200
)

// Placement holds the vertical offsets for one video.
type Placement struct {
	LogoY      int // Logo image, always at the top.
	QuoteY     int // Rendered quote image.
	ReferenceY int // Reference text drawn by ffmpeg.
}

// Plan places the quote image at QuoteTop and the reference line below it.
// When the reference would start below ReferenceMaxY it is clamped there and
// the quote image moves up by the same amount.
func Plan(quoteHeight int) Placement {
	p := Placement{
		LogoY:      0,
		QuoteY:     QuoteTop,
		ReferenceY: QuoteTop + quoteHeight + ReferenceGap,
	}
	if p.ReferenceY > ReferenceMaxY {
		overflow := p.ReferenceY - ReferenceMaxY
		p.ReferenceY = ReferenceMaxY
		p.QuoteY -= overflow
	}
	return p
}
