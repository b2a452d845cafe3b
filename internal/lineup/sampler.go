package lineup

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws synthetic priorities for shows the lineup left unrated. Draws
// come from a normal distribution centred on the middle of [Min, Max] with a
// quarter of the range as standard deviation, rounded and clamped.
type Sampler struct {
	Min, Max int
	dist     distuv.Normal
}

// NewSampler returns a sampler over [min, max] drawing from src. A nil src
// uses the global generator.
func NewSampler(min, max int, src rand.Source) (*Sampler, error) {
	if min > max {
		return nil, fmt.Errorf("priority range [%d,%d] is empty", min, max)
	}
	spread := float64(max-min) / 4
	if spread == 0 {
		spread = 1
	}
	return &Sampler{
		Min: min,
		Max: max,
		dist: distuv.Normal{
			Mu:    float64(min+max) / 2,
			Sigma: spread,
			Src:   src,
		},
	}, nil
}

// Draw returns one priority in [Min, Max].
func (s *Sampler) Draw() int {
	v := int(math.Round(s.dist.Rand()))
	return max(s.Min, min(s.Max, v))
}

// Fill sets a drawn priority on every entry without one and returns how many
// were filled. Entries that already have a priority are left alone.
func (s *Sampler) Fill(entries Entries) int {
	n := 0
	for i := range entries {
		if entries[i].Priority != nil {
			continue
		}
		entries[i].Priority = IntPtr(s.Draw())
		n++
	}
	return n
}
