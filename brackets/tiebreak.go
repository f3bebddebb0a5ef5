package brackets

import (
	"math/rand"
	"sync"
)

// TieBreaker decides drawn knockout matches (penalty shootout stand-in).
type TieBreaker interface {
	HomeAdvances(matchID string) bool
}

// RandomTieBreaker flips an unweighted coin. Safe for concurrent use.
type RandomTieBreaker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomTieBreaker(seed int64) *RandomTieBreaker {
	return &RandomTieBreaker{rng: rand.New(rand.NewSource(seed))}
}

func (t *RandomTieBreaker) HomeAdvances(string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rng.Float64() > 0.5
}

// FixedTieBreaker always sends the same side through.
type FixedTieBreaker bool

const (
	HomeAlwaysAdvances FixedTieBreaker = true
	AwayAlwaysAdvances FixedTieBreaker = false
)

func (f FixedTieBreaker) HomeAdvances(string) bool { return bool(f) }

type TieBreakerFunc func(matchID string) bool

func (f TieBreakerFunc) HomeAdvances(matchID string) bool { return f(matchID) }
