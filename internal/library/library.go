// Package library loads the media pools, fonts and quotes a batch draws from.
package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"versereel/internal/model"
)

// Source names where each part of the library lives on disk.
type Source struct {
	ClipsDir      string
	AudioDir      string
	QuotesFile    string
	LogoImage     string
	ReferenceFont string
	FallbackFont  string
	Fonts         []model.FontProfile
}

// Load reads the clip and audio folders and the quotes file.
// Pools are sorted by file name so indices are stable for a batch.
func Load(src Source) (model.Library, error) {
	clips, err := ListMedia(src.ClipsDir, ".mp4")
	if err != nil {
		return model.Library{}, fmt.Errorf("clips: %w", err)
	}
	tracks, err := ListMedia(src.AudioDir, ".mp3")
	if err != nil {
		return model.Library{}, fmt.Errorf("audio: %w", err)
	}
	quotes, err := LoadQuotes(src.QuotesFile)
	if err != nil {
		return model.Library{}, err
	}
	return model.Library{
		Clips:         clips,
		Tracks:        tracks,
		Fonts:         src.Fonts,
		Quotes:        quotes,
		LogoImage:     src.LogoImage,
		ReferenceFont: src.ReferenceFont,
		FallbackFont:  src.FallbackFont,
	}, nil
}

// ListMedia returns the files in dir with the given extension (case-insensitive).
func ListMedia(dir, ext string) (model.MediaPool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	var pool model.MediaPool
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		pool = append(pool, filepath.Join(dir, e.Name()))
	}
	sort.Strings(pool)
	return pool, nil
}

type parallelQuotes struct {
	Verses     []string `json:"verses"`
	References []string `json:"references"`
}

// LoadQuotes reads a quotes file. Two layouts are accepted: an array of
// {"verse","reference"} objects, or an object with parallel "verses" and
// "references" arrays of equal length.
func LoadQuotes(path string) ([]model.Quote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quotes: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var quotes []model.Quote
		if err := json.Unmarshal(data, &quotes); err != nil {
			return nil, fmt.Errorf("parse quotes %s: %w", path, err)
		}
		return quotes, nil
	}
	var pq parallelQuotes
	if err := json.Unmarshal(data, &pq); err != nil {
		return nil, fmt.Errorf("parse quotes %s: %w", path, err)
	}
	if len(pq.Verses) != len(pq.References) {
		return nil, fmt.Errorf("parse quotes %s: %d verses but %d references", path, len(pq.Verses), len(pq.References))
	}
	quotes := make([]model.Quote, len(pq.Verses))
	for i := range pq.Verses {
		quotes[i] = model.Quote{Verse: pq.Verses[i], Reference: pq.References[i]}
	}
	return quotes, nil
}
