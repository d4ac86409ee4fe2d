package allocator

import (
	"errors"
	"math/rand"
	"testing"
)

func TestAllocate_Coverage(t *testing.T) {
	tests := []struct {
		name                string
		n                   int
		clips, tracks, font int
	}{
		{"fewer videos than pool", 2, 5, 5, 5},
		{"exact multiple", 9, 3, 3, 3},
		{"uneven", 7, 3, 2, 4},
		{"single entry pools", 4, 1, 1, 1},
		{"large batch", 100, 7, 11, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := int64(0); seed < 20; seed++ {
				a, err := Allocate(tt.n, tt.clips, tt.tracks, tt.font, rand.New(rand.NewSource(seed)))
				if err != nil {
					t.Fatalf("Allocate() error: %v", err)
				}
				clipCount := make([]int, tt.clips)
				trackCount := make([]int, tt.tracks)
				fontCount := make([]int, tt.font)
				for i := 0; i < tt.n; i++ {
					as, err := a.Next()
					if err != nil {
						t.Fatalf("Next() #%d error: %v", i, err)
					}
					if as.Clip < 0 || as.Clip >= tt.clips || as.Track < 0 || as.Track >= tt.tracks || as.Font < 0 || as.Font >= tt.font {
						t.Fatalf("assignment out of range: %+v", as)
					}
					clipCount[as.Clip]++
					trackCount[as.Track]++
					fontCount[as.Font]++
				}
				checkBalanced(t, "clips", clipCount, tt.n)
				checkBalanced(t, "tracks", trackCount, tt.n)
				checkBalanced(t, "fonts", fontCount, tt.n)

				if _, err := a.Next(); !errors.Is(err, ErrAllocationExhausted) {
					t.Errorf("Next() after %d pops = %v, want ErrAllocationExhausted", tt.n, err)
				}
			}
		})
	}
}

func checkBalanced(t *testing.T, name string, counts []int, n int) {
	t.Helper()
	p := len(counts)
	lo, hi := n/p, (n+p-1)/p
	total := 0
	for idx, c := range counts {
		total += c
		if c < lo || c > hi {
			t.Errorf("%s index %d used %d times, want between %d and %d", name, idx, c, lo, hi)
		}
	}
	if total != n {
		t.Errorf("%s total = %d, want %d", name, total, n)
	}
}

func TestAllocate_Empty(t *testing.T) {
	for _, n := range []int{0, -1, -5} {
		a, err := Allocate(n, 3, 3, 3, nil)
		if err != nil {
			t.Fatalf("Allocate(%d) error: %v", n, err)
		}
		if a.Remaining() != 0 {
			t.Errorf("Allocate(%d).Remaining() = %d, want 0", n, a.Remaining())
		}
		if _, err := a.Next(); !errors.Is(err, ErrAllocationExhausted) {
			t.Errorf("Next() on empty allocation = %v, want ErrAllocationExhausted", err)
		}
	}
}

func TestAllocate_EmptyPool(t *testing.T) {
	if _, err := Allocate(3, 2, 0, 2, nil); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("Allocate() with empty tracks = %v, want ErrEmptyPool", err)
	}
	if _, err := Allocate(0, 0, 0, 0, nil); err != nil {
		t.Errorf("Allocate(0) with empty pools = %v, want nil", err)
	}
}

func TestAllocate_SinglePoolAlwaysZero(t *testing.T) {
	a, err := Allocate(5, 1, 1, 1, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatal(err)
	}
	for a.Remaining() > 0 {
		as, _ := a.Next()
		if as.Clip != 0 || as.Track != 0 || as.Font != 0 {
			t.Fatalf("assignment = %+v, want all zero", as)
		}
	}
}

func TestPreview_MatchesNext(t *testing.T) {
	a, err := Allocate(6, 3, 4, 2, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	preview := a.Preview()
	if len(preview) != 6 {
		t.Fatalf("Preview() len = %d, want 6", len(preview))
	}
	for i, want := range preview {
		got, err := a.Next()
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Next() #%d = %+v, preview had %+v", i, got, want)
		}
	}
}

func TestAllocate_SameSeedSameOrder(t *testing.T) {
	a1, _ := Allocate(10, 4, 3, 5, rand.New(rand.NewSource(99)))
	a2, _ := Allocate(10, 4, 3, 5, rand.New(rand.NewSource(99)))
	p1, p2 := a1.Preview(), a2.Preview()
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("seeded allocations differ at %d: %+v vs %+v", i, p1[i], p2[i])
		}
	}
}
