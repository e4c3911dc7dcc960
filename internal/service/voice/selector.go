package voice

import (
	"fmt"
	"math/rand"
	"sync"
)

// Selector picks one of n candidates. Pick is only called with n > 0.
type Selector interface {
	Pick(n int) int
}

type FirstSelector struct{}

func (FirstSelector) Pick(int) int { return 0 }

// IndexSelector always picks the same position, clamped to the last candidate.
type IndexSelector struct {
	Index int
}

func (s IndexSelector) Pick(n int) int {
	switch {
	case s.Index < 0:
		return 0
	case s.Index >= n:
		return n - 1
	default:
		return s.Index
	}
}

// RandomSelector picks uniformly from a seeded source. Safe for concurrent use.
type RandomSelector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomSelector(seed int64) *RandomSelector {
	return &RandomSelector{rnd: rand.New(rand.NewSource(seed))}
}

func (s *RandomSelector) Pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// NewSelector maps a configured strategy name to a Selector.
func NewSelector(strategy string, index int, seed int64) (Selector, error) {
	switch strategy {
	case "", "first":
		return FirstSelector{}, nil
	case "index":
		return IndexSelector{Index: index}, nil
	case "random":
		return NewRandomSelector(seed), nil
	default:
		return nil, fmt.Errorf("unknown selection strategy %q", strategy)
	}
}

// Select returns the chosen element, or false for an empty slice.
func Select[T any](s Selector, items []T) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	return items[s.Pick(len(items))], true
}
