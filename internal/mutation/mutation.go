// Package mutation provides the schedule perturbation operators used by the
// optimization strategies. Every operator derives a new schedule from an
// explicit deep copy and never mutates its input; expected failures (locked
// matches, missing fixtures, full slots) are reported as an ok=false result,
// not as errors, because strategies legitimately probe impossible moves.
package mutation

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// Mutator applies stochastic perturbations to schedules. The random source is
// injected so searches can be made deterministic in tests.
type Mutator struct {
	rng    *rand.Rand
	logger *zap.Logger
}

// New constructs a Mutator. A nil rng falls back to a time-seeded source; a
// nil logger is replaced with a no-op.
func New(rng *rand.Rand, logger *zap.Logger) *Mutator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mutator{rng: rng, logger: logger}
}

// SwapMatches exchanges time slot and field between two matches. It fails
// when either match is locked, special, or cannot be located in the schedule
// by fixture identity.
func (m *Mutator) SwapMatches(s *models.Schedule, a, b *models.Match) (*models.Schedule, bool) {
	if a == nil || b == nil {
		return nil, false
	}
	clone := s.DeepCopy()
	ca := clone.FindFixture(a)
	cb := clone.FindFixture(b)
	if ca == nil || cb == nil || ca == cb {
		return nil, false
	}
	if !ca.Movable() || !cb.Movable() {
		return nil, false
	}

	ca.TimeSlot, cb.TimeSlot = cb.TimeSlot, ca.TimeSlot
	ca.Field, cb.Field = cb.Field, ca.Field
	clone.SortMatches()
	return clone, true
}

// SwapTimeSlots exchanges every match in slot t1 with slot t2. Empty slots
// are allowed; locked matches and special activities in either slot make the
// swap impossible.
func (m *Mutator) SwapTimeSlots(s *models.Schedule, t1, t2 int) (*models.Schedule, bool) {
	for _, match := range s.Matches {
		if (match.TimeSlot == t1 || match.TimeSlot == t2) && !match.Movable() {
			return nil, false
		}
	}

	clone := s.DeepCopy()
	if t1 != t2 {
		for _, match := range clone.Matches {
			switch match.TimeSlot {
			case t1:
				match.TimeSlot = t2
			case t2:
				match.TimeSlot = t1
			}
		}
	}
	clone.SortMatches()
	return clone, true
}

// MoveMatchesToTimeSlot reassigns the given matches to unused fields in an
// existing target slot. It fails when a match is locked or missing, when the
// target slot does not exist or holds a special activity, or when the move
// would need more simultaneous fields than the schedule has.
func (m *Mutator) MoveMatchesToTimeSlot(s *models.Schedule, matches []*models.Match, target int) (*models.Schedule, bool) {
	if len(matches) == 0 {
		return nil, false
	}

	clone := s.DeepCopy()

	targetExists := false
	for _, slot := range clone.DistinctSlots() {
		if slot == target {
			targetExists = true
			break
		}
	}
	if !targetExists {
		return nil, false
	}

	moved := make([]*models.Match, 0, len(matches))
	movedSet := make(map[*models.Match]bool)
	for _, match := range matches {
		located := clone.FindFixture(match)
		if located == nil || !located.Movable() {
			return nil, false
		}
		if !movedSet[located] {
			moved = append(moved, located)
			movedSet[located] = true
		}
	}

	usedFields := make(map[string]bool)
	occupancy := 0
	for _, match := range clone.Matches {
		if match.TimeSlot != target || movedSet[match] {
			continue
		}
		if match.Special() {
			return nil, false
		}
		usedFields[match.Field] = true
		occupancy++
	}

	fields := clone.Fields()
	if occupancy+len(moved) > len(fields) {
		return nil, false
	}

	next := 0
	for _, match := range moved {
		for next < len(fields) && usedFields[fields[next]] {
			next++
		}
		if next >= len(fields) {
			return nil, false
		}
		match.TimeSlot = target
		match.Field = fields[next]
		usedFields[fields[next]] = true
	}

	clone.SortMatches()
	return clone, true
}
