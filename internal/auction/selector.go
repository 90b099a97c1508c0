package auction

import (
	"math/rand"
	"sync"

	"github.com/vpleague/auctioneer/internal/store"
)

// Selector chooses the next player to present. Selection is two-phase:
// first the fresh pool in fixed role-priority order (all keepers are
// exhausted before any batter comes up, and so on), picking uniformly at
// random within the first non-empty role; then, once the fresh pool is
// empty, a random unsold player is revived. A nil pick means the auction
// is complete.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector returns a Selector seeded with seed, so test runs can pin
// the random order.
func NewSelector(seed int64) *Selector {
	return &Selector{rng: rand.New(rand.NewSource(seed))}
}

// Pick is the outcome of a selection round.
type Pick struct {
	Player store.Player
	// Revived is true when the player came from the unsold pile and must
	// be re-admitted to the fresh pool.
	Revived bool
}

// Next picks from pool, never returning the currently displayed player.
func (s *Selector) Next(pool []store.Player, currentID string) *Pick {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, role := range store.SelectionOrder {
		var candidates []store.Player
		for _, p := range pool {
			if !p.Status.Fresh() || p.ID == currentID || p.Role != role {
				continue
			}
			candidates = append(candidates, p)
		}
		if len(candidates) > 0 {
			return &Pick{Player: candidates[s.rng.Intn(len(candidates))]}
		}
	}

	var unsold []store.Player
	for _, p := range pool {
		if p.Status == store.StatusUnsold {
			unsold = append(unsold, p)
		}
	}
	if len(unsold) > 0 {
		return &Pick{Player: unsold[s.rng.Intn(len(unsold))], Revived: true}
	}
	return nil
}
