package picks

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/pick-engine/internal/decay"
	"github.com/XavierBriggs/fortuna/services/pick-engine/pkg/models"
)

// ErrPickNotFound is returned when no pick is tracked under a key
var ErrPickNotFound = errors.New("pick not found")

// Evaluation pairs a decay result with the pick state it produced
type Evaluation struct {
	Pick   *models.Pick
	Result *decay.Result
}

// Tracker owns the live picks. Each pick has its own lock, so evaluations of
// one pick are serialized while different picks proceed in parallel.
// Callers only ever see clones.
type Tracker struct {
	decay *decay.Engine

	mu      sync.RWMutex
	entries map[string]*entry   // pick key -> entry
	byGame  map[string][]string // game id -> pick keys
}

type entry struct {
	mu   sync.Mutex
	pick *models.Pick
}

// NewTracker creates a new pick tracker
func NewTracker(engine *decay.Engine) *Tracker {
	return &Tracker{
		decay:   engine,
		entries: make(map[string]*entry),
		byGame:  make(map[string][]string),
	}
}

// Track starts tracking pick. It returns false when the game already has a
// pick for that market; the first pick for a game and market stands.
func (t *Tracker) Track(pick *models.Pick) bool {
	key := pick.Key()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[key]; exists {
		return false
	}
	t.entries[key] = &entry{pick: pick.Clone()}
	t.byGame[pick.GameID] = append(t.byGame[pick.GameID], key)
	return true
}

// Untrack forgets the pick under key if it is still the one with id. It
// reports whether a pick was removed.
func (t *Tracker) Untrack(key, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return false
	}
	e.mu.Lock()
	same := e.pick.ID == id
	gameID := e.pick.GameID
	e.mu.Unlock()
	if !same {
		return false
	}

	delete(t.entries, key)
	keys := t.byGame[gameID]
	kept := keys[:0]
	for _, k := range keys {
		if k != key {
			kept = append(kept, k)
		}
	}
	if len(kept) == 0 {
		delete(t.byGame, gameID)
	} else {
		t.byGame[gameID] = kept
	}
	return true
}

// Reevaluate runs decay for the pick under key
func (t *Tracker) Reevaluate(key string, snapshot models.MarketSnapshot) (*Evaluation, error) {
	e, ok := t.lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPickNotFound, key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := t.decay.Reevaluate(e.pick, snapshot)
	if err != nil {
		return nil, err
	}
	return &Evaluation{Pick: e.pick.Clone(), Result: result}, nil
}

// ReevaluateGame runs decay for every open pick of the snapshot's game.
// Graded picks are skipped. Failures on one pick do not stop the others.
func (t *Tracker) ReevaluateGame(snapshot models.MarketSnapshot) ([]Evaluation, error) {
	var (
		out  []Evaluation
		errs []error
	)

	for _, key := range t.gameKeys(snapshot.GameID) {
		e, ok := t.lookup(key)
		if !ok {
			continue
		}

		e.mu.Lock()
		if e.pick.Graded {
			e.mu.Unlock()
			continue
		}
		result, err := t.decay.Reevaluate(e.pick, snapshot)
		if err == nil {
			out = append(out, Evaluation{Pick: e.pick.Clone(), Result: result})
		}
		e.mu.Unlock()

		if err != nil {
			errs = append(errs, fmt.Errorf("reevaluate %s: %w", key, err))
		}
	}

	return out, errors.Join(errs...)
}

// MarkGraded makes every pick of a game terminal and returns the ones it changed
func (t *Tracker) MarkGraded(gameID string, at time.Time) []*models.Pick {
	var graded []*models.Pick

	for _, key := range t.gameKeys(gameID) {
		e, ok := t.lookup(key)
		if !ok {
			continue
		}

		e.mu.Lock()
		if !e.pick.Graded {
			e.pick.MarkGraded(at)
			graded = append(graded, e.pick.Clone())
		}
		e.mu.Unlock()
	}

	return graded
}

// Get returns a copy of the pick under key
func (t *Tracker) Get(key string) (*models.Pick, bool) {
	e, ok := t.lookup(key)
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pick.Clone(), true
}

// ForGame returns copies of a game's picks in the order they were tracked
func (t *Tracker) ForGame(gameID string) []*models.Pick {
	var out []*models.Pick
	for _, key := range t.gameKeys(gameID) {
		if p, ok := t.Get(key); ok {
			out = append(out, p)
		}
	}
	return out
}

// List returns copies of all tracked picks, newest first. When openOnly is
// set graded picks are left out.
func (t *Tracker) List(openOnly bool) []*models.Pick {
	t.mu.RLock()
	keys := make([]string, 0, len(t.entries))
	for key := range t.entries {
		keys = append(keys, key)
	}
	t.mu.RUnlock()

	out := make([]*models.Pick, 0, len(keys))
	for _, key := range keys {
		p, ok := t.Get(key)
		if !ok || (openOnly && p.Graded) {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Key() < out[j].Key()
	})
	return out
}

// Prune forgets picks graded before cutoff and returns how many were dropped
func (t *Tracker) Prune(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for gameID, keys := range t.byGame {
		kept := keys[:0]
		for _, key := range keys {
			e := t.entries[key]
			e.mu.Lock()
			stale := e.pick.Graded && e.pick.GradedAt != nil && e.pick.GradedAt.Before(cutoff)
			e.mu.Unlock()

			if stale {
				delete(t.entries, key)
				removed++
				continue
			}
			kept = append(kept, key)
		}

		if len(kept) == 0 {
			delete(t.byGame, gameID)
		} else {
			t.byGame[gameID] = kept
		}
	}

	return removed
}

// Len returns the number of tracked picks
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Tracker) lookup(key string) (*entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[key]
	return e, ok
}

func (t *Tracker) gameKeys(gameID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.byGame[gameID]...)
}
