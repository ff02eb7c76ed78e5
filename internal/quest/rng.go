package quest

import (
	"math/rand/v2"
	"time"
)

// NewRand returns a PCG source seeded with seed, or with the wall clock when seed is zero.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// between returns a uniform integer in [lo, hi].
func between(r *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

// roll is a percentile die in [0, 100).
func roll(r *rand.Rand) int {
	return r.IntN(100)
}

func pick[T any](r *rand.Rand, s []T) T {
	return s[r.IntN(len(s))]
}

func shuffle[T any](r *rand.Rand, s []T) {
	r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}
