package gacha

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// RandomSource abstracts the randomness used by rarity resolution and card
// picks so draws can be made deterministic in tests.
type RandomSource interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// IntN returns a uniform value in [0, n).
	IntN(n int) int
}

type cryptoRNG struct{}

// NewCryptoRNG returns the production source, backed by crypto/rand.
func NewCryptoRNG() RandomSource {
	return cryptoRNG{}
}

func (cryptoRNG) Float64() float64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("gacha: crypto/rand failed: " + err.Error())
	}
	// 53 random bits scaled into [0, 1), matching math/rand semantics.
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}

func (c cryptoRNG) IntN(n int) int {
	return int(c.Float64() * float64(n))
}

type seededRNG struct {
	r *mrand.Rand
}

// NewSeededRNG returns a deterministic source for tests and simulations.
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededRNG) Float64() float64 {
	return s.r.Float64()
}

func (s *seededRNG) IntN(n int) int {
	return s.r.IntN(n)
}

// fixedRNG replays a fixed sequence of floats, cycling at the end. Only used
// from tests that need exact slot outcomes.
type fixedRNG struct {
	seq []float64
	i   int
}

func NewFixedRNG(seq ...float64) RandomSource {
	return &fixedRNG{seq: seq}
}

func (f *fixedRNG) Float64() float64 {
	v := f.seq[f.i%len(f.seq)]
	f.i++
	return v
}

func (f *fixedRNG) IntN(n int) int {
	return int(f.Float64() * float64(n))
}
