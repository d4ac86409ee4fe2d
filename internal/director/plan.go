package director

import (
	"fmt"
	"path/filepath"

	"versereel/internal/allocator"
	"versereel/internal/model"
	"versereel/internal/util/media"
)

// PlannedVideo is one row of a dry-run plan.
type PlannedVideo struct {
	Index      int
	Clip       string
	Track      string
	Font       model.FontProfile
	Quote      model.Quote
	OutputName string
}

// Plan allocates a batch without rendering or encoding anything, using the
// same random source Run would use.
func (s *Service) Plan(req model.BatchRequest) ([]PlannedVideo, error) {
	lib := req.Library
	if req.Count > len(lib.Quotes) {
		return nil, fmt.Errorf("%w: requested %d, have %d", ErrNotEnoughQuotes, req.Count, len(lib.Quotes))
	}
	alloc, err := allocator.Allocate(req.Count, lib.Clips.Len(), lib.Tracks.Len(), len(lib.Fonts), s.rng)
	if err != nil {
		return nil, fmt.Errorf("allocate: %w", err)
	}
	out := make([]PlannedVideo, 0, req.Count)
	for i, as := range alloc.Preview() {
		clip := lib.Clips[as.Clip]
		out = append(out, PlannedVideo{
			Index:      i,
			Clip:       filepath.Base(clip),
			Track:      filepath.Base(lib.Tracks[as.Track]),
			Font:       lib.Fonts[as.Font],
			Quote:      lib.Quotes[i],
			OutputName: media.OutputFilename(i, lib.Quotes[i].Reference, clip),
		})
	}
	return out, nil
}
