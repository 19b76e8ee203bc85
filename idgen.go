package spanz

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"github.com/seehuhn/mt19937"
)

// BitSource produces a deterministic stream of 64-bit values once seeded.
type BitSource interface {
	Uint64() uint64
}

// Generator mints span identifiers from a seeded BitSource.
// Not safe for concurrent use - each execution context owns one.
type Generator struct {
	src   BitSource
	seed  uint64
	fixed bool
}

// NewGenerator seeds a 64-bit Mersenne Twister exactly once.
// A positive debugSeed gives a reproducible identifier sequence;
// otherwise PlatformSeed is consulted.
func NewGenerator(debugSeed uint64) *Generator {
	return newGenerator(debugSeed, PlatformSeed)
}

func newGenerator(debugSeed uint64, entropy func() uint64) *Generator {
	g := &Generator{}
	if debugSeed > 0 {
		g.seed = debugSeed
		g.fixed = true
	} else {
		g.seed = entropy()
	}

	mt := mt19937.New()
	mt.Seed(int64(g.seed))
	g.src = mt
	return g
}

// NewGeneratorFrom wraps an already seeded source.
func NewGeneratorFrom(src BitSource) *Generator {
	return &Generator{src: src}
}

// Next draws one value from the source and maps it into [1, 2^63].
// Shifting drops to 63 bits; adding one keeps NoID out of the range.
func (g *Generator) Next() ID {
	return ID(g.src.Uint64()>>1 + 1)
}

// Seeded reports the seed used and whether it came from configuration.
func (g *Generator) Seeded() (seed uint64, fixed bool) {
	return g.seed, g.fixed
}

// PlatformSeed returns 64 bits from crypto/rand, falling back to the
// wall clock if the system source fails.
func PlatformSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}
