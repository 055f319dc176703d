// Package service provides the business logic of the flower server,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/atinyakov/flowerdaily/internal/models"
)

// MaxBatchSize caps the number of flowers returned by one selection.
const MaxBatchSize = 50

// ErrInvalidCount is returned for a negative batch size.
var ErrInvalidCount = errors.New("count must not be negative")

// closingMessages are shown once every flower has been seen.
var closingMessages = []string{
	"You have met every flower in the garden. Come back tomorrow for a fresh bloom.",
	"The garden is all yours now: every card has been turned.",
	"That was the last petal. Rest a little, the flowers will wait for you.",
	"Every flower has told its story today.",
}

// FlowerPool defines the persistence operations required by the SelectionService.
type FlowerPool interface {
	// ListAvailableIDs returns the IDs of every flower not in excluded.
	ListAvailableIDs(ctx context.Context, excluded []string) ([]string, error)
	// GetFlowersByIDs loads the flowers with the given IDs.
	GetFlowersByIDs(ctx context.Context, ids []string) ([]models.Flower, error)
}

// Rand is the randomness source used for drawing. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// BatchRecorder observes selection outcomes.
type BatchRecorder interface {
	ObserveBatch(finished bool, size int)
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

type nopRecorder struct{}

func (nopRecorder) ObserveBatch(bool, int) {}

// SelectionService draws random, non-repeating batches of flowers. It keeps
// no state between calls: the caller sends the IDs it has already seen.
type SelectionService struct {
	pool     FlowerPool
	rnd      Rand
	recorder BatchRecorder
}

// NewSelectionService constructs a SelectionService. A nil rnd uses the
// package-level math/rand/v2 source, which is safe for concurrent use; a nil
// recorder discards observations.
func NewSelectionService(pool FlowerPool, rnd Rand, recorder BatchRecorder) *SelectionService {
	if rnd == nil {
		rnd = globalRand{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &SelectionService{pool: pool, rnd: rnd, recorder: recorder}
}

// SelectBatch returns up to count flowers whose IDs are not in excluded,
// drawn uniformly without replacement. When nothing is left it returns a
// finished batch carrying a closing message. A count of 0 means 1 and counts
// above MaxBatchSize are clamped.
func (s *SelectionService) SelectBatch(ctx context.Context, excluded []string, count int) (models.Batch, error) {
	switch {
	case count < 0:
		return models.Batch{}, ErrInvalidCount
	case count == 0:
		count = 1
	case count > MaxBatchSize:
		count = MaxBatchSize
	}

	available, err := s.pool.ListAvailableIDs(ctx, excluded)
	if err != nil {
		return models.Batch{}, err
	}
	if len(available) == 0 {
		s.recorder.ObserveBatch(true, 0)
		return models.Batch{
			Finished: true,
			Message:  closingMessages[s.rnd.IntN(len(closingMessages))],
		}, nil
	}

	chosen := s.draw(available, min(count, len(available)))
	flowers, err := s.pool.GetFlowersByIDs(ctx, chosen)
	if err != nil {
		return models.Batch{}, err
	}

	s.recorder.ObserveBatch(false, len(flowers))
	return models.Batch{List: flowers}, nil
}

// draw runs k steps of a Fisher-Yates shuffle and returns the shuffled
// prefix. ids is reordered in place.
func (s *SelectionService) draw(ids []string, k int) []string {
	for i := 0; i < k; i++ {
		j := i + s.rnd.IntN(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids[:k]
}
