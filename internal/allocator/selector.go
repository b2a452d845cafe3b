package allocator

import "math/rand/v2"

// SelectStage picks one stage out of available, which must be in ascending
// order. Random draws uniformly from rng (or the global source when rng is
// nil); every other policy takes the lowest stage. An empty set yields
// ErrNoStageAvailable.
func SelectStage(available []int, policy Policy, rng *rand.Rand) (int, error) {
	if len(available) == 0 {
		return 0, ErrNoStageAvailable
	}
	if policy == Random {
		if rng == nil {
			return available[rand.IntN(len(available))], nil
		}
		return available[rng.IntN(len(available))], nil
	}
	return available[0], nil
}
