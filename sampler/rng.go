// Package sampler implements the physical samplers of spec §4.A: uniform
// draws, inverse-CDF speed/time sampling, and polar/cartesian direction
// transforms.
package sampler

import (
	"hash/fnv"

	"golang.org/x/exp/rand"
)

// RNG wraps a deterministic per-worker random source. Workers never share
// an RNG; worker k is seeded by baseSeed XOR k, or by a fixed reproducible
// variant when FixedSeed is requested (spec §4.A).
type RNG struct {
	src *rand.Rand
}

// NewWorkerRNG derives a worker's RNG from a base seed and worker id: the
// seed is baseSeed XOR workerID, or 42424242+workerID when fixedSeed holds
// (the base seed is then ignored).
func NewWorkerRNG(baseSeed int64, workerID int, fixedSeed bool) *RNG {
	var seed int64
	if fixedSeed {
		seed = 42424242 + int64(workerID)
	} else {
		seed = baseSeed ^ int64(workerID)
	}
	return &RNG{src: rand.New(rand.NewSource(uint64(seed)))}
}

func fnv1a64Int(id int) int64 {
	h := fnv.New64a()
	var b [8]byte
	v := uint64(id)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	h.Write(b[:])
	return int64(h.Sum64())
}

// Float64 returns a uniform draw in [0,1).
func (r *RNG) Float64() float64 {
	return r.src.Float64()
}

// GenerateSeed derives a reproducible seed from a worker id alone (an FNV-1a
// hash of the id XOR a fixed constant). NewWorkerRNG, which SetNParticle
// uses, does not call it.
func GenerateSeed(id int) int64 {
	return fnv1a64Int(id) ^ 0x9E3779B97F4A7C15
}
