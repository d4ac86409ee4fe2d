// Package allocator spreads media pools over the videos of a batch so that
// every clip, track and font is used as evenly as possible, in random order.
package allocator

import (
	"errors"
	"fmt"
	"math/rand"

	"versereel/internal/model"
)

var (
	// ErrAllocationExhausted is returned when more assignments are requested
	// than the allocation was built for.
	ErrAllocationExhausted = errors.New("allocation exhausted")
	// ErrEmptyPool is returned when a pool has no entries but videos are requested.
	ErrEmptyPool = errors.New("empty pool")
)

// Allocation holds the three shuffled index sequences for one batch.
// It is owned by a single batch and not safe for concurrent use.
type Allocation struct {
	clips  []int
	tracks []int
	fonts  []int
}

// Allocate builds an allocation for n videos over pools of the given sizes.
// Each pool gets a random start s and the sequence (s+i) mod size for i in [0,n),
// which is then shuffled. Every index therefore appears floor(n/size) or
// ceil(n/size) times. n <= 0 yields an empty allocation.
func Allocate(n, clips, tracks, fonts int, rng *rand.Rand) (*Allocation, error) {
	if n <= 0 {
		return &Allocation{}, nil
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	a := &Allocation{}
	var err error
	if a.clips, err = cyclic(n, clips, "clips", rng); err != nil {
		return nil, err
	}
	if a.tracks, err = cyclic(n, tracks, "tracks", rng); err != nil {
		return nil, err
	}
	if a.fonts, err = cyclic(n, fonts, "fonts", rng); err != nil {
		return nil, err
	}
	return a, nil
}

func cyclic(n, size int, name string, rng *rand.Rand) ([]int, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPool, name)
	}
	start := rng.Intn(size)
	seq := make([]int, n)
	for i := range seq {
		seq[i] = (start + i) % size
	}
	rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	return seq, nil
}

// Remaining reports how many assignments can still be popped.
func (a *Allocation) Remaining() int {
	return min(len(a.clips), len(a.tracks), len(a.fonts))
}

// Next pops one assignment from the end of each sequence.
func (a *Allocation) Next() (model.Assignment, error) {
	if a.Remaining() == 0 {
		return model.Assignment{}, ErrAllocationExhausted
	}
	last := len(a.clips) - 1
	as := model.Assignment{Clip: a.clips[last]}
	a.clips = a.clips[:last]

	last = len(a.tracks) - 1
	as.Track = a.tracks[last]
	a.tracks = a.tracks[:last]

	last = len(a.fonts) - 1
	as.Font = a.fonts[last]
	a.fonts = a.fonts[:last]
	return as, nil
}

// Preview returns the assignments in the order Next would produce them
// without consuming the allocation.
func (a *Allocation) Preview() []model.Assignment {
	n := a.Remaining()
	out := make([]model.Assignment, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, model.Assignment{
			Clip:  a.clips[len(a.clips)-i],
			Track: a.tracks[len(a.tracks)-i],
			Font:  a.fonts[len(a.fonts)-i],
		})
	}
	return out
}
