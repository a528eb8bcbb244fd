// Package catalog holds the canonical Magic 8 Ball answers.
package catalog

import (
	"math/rand/v2"
	"sync"
)

// Phrases are the 20 canonical answers, in their traditional order.
var Phrases = [20]string{
	"It is certain.",
	"It is decidedly so.",
	"Without a doubt.",
	"Yes definitely.",
	"You may rely on it.",
	"As I see it, yes.",
	"Most likely.",
	"Outlook good.",
	"Yes.",
	"Signs point to yes.",
	"Reply hazy, try again.",
	"Ask again later.",
	"Better not tell you now.",
	"Cannot predict now.",
	"Concentrate and ask again.",
	"Don't count on it.",
	"My reply is no.",
	"My sources say no.",
	"Outlook not so good.",
	"Very doubtful.",
}

// Catalog picks phrases uniformly at random. Picks are independent, so
// repeats are expected.
type Catalog struct {
	mu  sync.Mutex
	rng *rand.Rand // nil means the runtime-seeded global source
}

// New returns a Catalog backed by the global random source.
func New() *Catalog {
	return &Catalog{}
}

// NewSeeded returns a Catalog with a deterministic sequence for the given seed.
func NewSeeded(seed uint64) *Catalog {
	return &Catalog{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick returns one canonical phrase.
func (c *Catalog) Pick() string {
	return Phrases[c.index()]
}

func (c *Catalog) index() int {
	if c.rng == nil {
		return rand.IntN(len(Phrases))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(len(Phrases))
}

// Contains reports whether s is one of the canonical phrases, verbatim.
func Contains(s string) bool {
	for _, p := range Phrases {
		if p == s {
			return true
		}
	}
	return false
}
