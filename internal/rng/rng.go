// Package rng provides the random sources used to shuffle decks.
package rng

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"

	"lukechampine.com/frand"
)

// Source yields uniform floats in [0, 1) and bounded ints.
type Source interface {
	Float64() float64
	Intn(n int) int
}

type entropySource struct{}

// Entropy returns a Source backed by frand's fast CSPRNG.
func Entropy() Source { return entropySource{} }

func (entropySource) Float64() float64 { return frand.Float64() }

func (entropySource) Intn(n int) int { return frand.Intn(n) }

// Seeded is a reproducible float stream: HMAC-SHA256 keyed by the server seed
// over "client:nonce:round", consumed 4 bytes per float.
type Seeded struct {
	serverSeed string
	clientSeed string
	nonce      uint64
	round      uint64
	pos        int
	buffer     [32]byte
}

// NewSeeded creates a seeded stream positioned at the first byte of round 0.
func NewSeeded(serverSeed, clientSeed string, nonce uint64) *Seeded {
	s := &Seeded{
		serverSeed: serverSeed,
		clientSeed: clientSeed,
		nonce:      nonce,
	}
	s.generateRound()
	return s
}

func (s *Seeded) nextByte() byte {
	if s.pos >= len(s.buffer) {
		s.round++
		s.pos = 0
		s.generateRound()
	}
	b := s.buffer[s.pos]
	s.pos++
	return b
}

// Float64 consumes exactly 4 bytes.
func (s *Seeded) Float64() float64 {
	return bytesToFloat([4]byte{s.nextByte(), s.nextByte(), s.nextByte(), s.nextByte()})
}

// Intn returns floor(Float64()*n), clamped to [0, n-1]. Panics if n <= 0.
func (s *Seeded) Intn(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to Intn")
	}
	i := int(math.Floor(s.Float64() * float64(n)))
	if i >= n {
		return n - 1
	}
	return i
}

func (s *Seeded) generateRound() {
	h := hmac.New(sha256.New, []byte(s.serverSeed))
	fmt.Fprintf(h, "%s:%d:%d", s.clientSeed, s.nonce, s.round)
	copy(s.buffer[:], h.Sum(nil))
}

// bytesToFloat maps 4 bytes to [0, 1) as b0/256 + b1/256^2 + b2/256^3 + b3/256^4.
func bytesToFloat(b [4]byte) float64 {
	result := 0.0
	for i, v := range b {
		result += float64(v) / math.Pow(256, float64(i+1))
	}
	return result
}
