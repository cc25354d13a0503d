package services

import (
	"hash/fnv"
	"math/rand"
	"time"
)

// UserSeed derives a stable per-user seed from the opaque user identifier.
// The assignment sequence must survive restarts and be identical on every
// node without being stored, so nothing volatile may feed the hash.
func UserSeed(userID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(userID))
	return int64(h.Sum64())
}

// DaySeed derives a seed from a calendar day, shared by all users. Day-scoped
// draws (quest batch item values, multiplier categories) must be reproducible
// from the calendar key alone, never from wall-clock-at-call-time.
func DaySeed(at time.Time) int64 {
	return int64(at.YearDay()) * int64(at.Year())
}

// SeededPermutation returns the deterministic pseudo-random permutation of
// [0, n) for a seed. Pure: same seed and n always yield the same order.
func SeededPermutation(seed int64, n int) []int {
	return rand.New(rand.NewSource(seed)).Perm(n)
}

// SeededRng returns a deterministic source for draws that need more than a
// single permutation (for example per-item quest values).
func SeededRng(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
