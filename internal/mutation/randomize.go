package mutation

import (
	"sort"

	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// Randomize produces a perturbed candidate schedule. One of three strategies
// is chosen per call: reorder whole divisions as contiguous blocks (25%),
// shuffle matches inside each division (50%), or scatter matches freely over
// the existing slots (25%, falling back to the division shuffle when the slot
// capacity is too small). Locked fixtures and special activities never move;
// field collisions are repaired and referees reshuffled after every
// perturbation. For the block and division strategies the multiset of
// occupied time slots is preserved.
func (m *Mutator) Randomize(s *models.Schedule) *models.Schedule {
	clone := s.DeepCopy()

	roll := m.rng.Float64()
	switch {
	case roll < 0.25:
		m.blockShuffle(clone)
	case roll < 0.75:
		m.divisionShuffle(clone)
	default:
		m.scatter(clone)
	}

	m.FixFieldConflicts(clone)
	m.ReshuffleReferees(clone)
	clone.SortMatches()
	return clone
}

// blockShuffle reorders whole divisions as contiguous blocks, redistributing
// the slots of the movable regular matches among the reordered blocks.
// Locked fixtures keep their slots.
func (m *Mutator) blockShuffle(s *models.Schedule) {
	divisions := presentDivisions(s)
	m.rng.Shuffle(len(divisions), func(i, j int) {
		divisions[i], divisions[j] = divisions[j], divisions[i]
	})

	pool := movableSlotMultiset(s)
	sort.Ints(pool)

	next := 0
	for _, d := range divisions {
		matches := movableMatches(s.DivisionMatches(d))
		m.shuffleMatches(matches)
		for _, match := range matches {
			match.TimeSlot = pool[next]
			next++
		}
	}
}

// divisionShuffle shuffles the movable matches inside each division while
// preserving their slot multiset.
func (m *Mutator) divisionShuffle(s *models.Schedule) {
	for _, d := range presentDivisions(s) {
		matches := movableMatches(s.DivisionMatches(d))
		slots := make([]int, len(matches))
		for i, match := range matches {
			slots[i] = match.TimeSlot
		}
		m.rng.Shuffle(len(slots), func(i, j int) {
			slots[i], slots[j] = slots[j], slots[i]
		})
		for i, match := range matches {
			match.TimeSlot = slots[i]
		}
	}
}

// scatter redistributes movable matches freely over the existing non-special
// slots, bounded by the field count per slot after locked fixtures claimed
// theirs. Falls back to the division shuffle when there is not enough
// capacity.
func (m *Mutator) scatter(s *models.Schedule) {
	matches := movableMatches(s.RegularMatches())
	slots := s.RegularSlots()
	fieldCount := len(s.Fields())

	capacity := make(map[int]int, len(slots))
	for _, slot := range slots {
		capacity[slot] = fieldCount
	}
	for _, match := range s.RegularMatches() {
		if !match.Movable() && capacity[match.TimeSlot] > 0 {
			capacity[match.TimeSlot]--
		}
	}
	total := 0
	for _, c := range capacity {
		total += c
	}
	if fieldCount == 0 || total < len(matches) {
		m.divisionShuffle(s)
		return
	}

	m.shuffleMatches(matches)
	for _, match := range matches {
		slot := slots[m.rng.Intn(len(slots))]
		for capacity[slot] == 0 {
			slot = slots[m.rng.Intn(len(slots))]
		}
		match.TimeSlot = slot
		capacity[slot]--
	}
}

// FixFieldConflicts repairs field assignments so no two matches in one slot
// share a field. Locked fixtures keep their field and claim it first; the
// remaining fields are handed out from a shuffled pool. A slot holding more
// matches than fields is logged, since the remaining collisions surface as
// hard violations at evaluation time.
func (m *Mutator) FixFieldConflicts(s *models.Schedule) {
	pool := s.Fields()
	bySlot := s.MatchesBySlot()

	for _, slot := range s.DistinctSlots() {
		shuffled := make([]string, len(pool))
		copy(shuffled, pool)
		m.rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		used := make(map[string]bool)
		for _, match := range bySlot[slot] {
			if !match.Special() && !match.Movable() && match.Field != "" {
				used[match.Field] = true
			}
		}

		var colliding []*models.Match
		for _, match := range bySlot[slot] {
			if !match.Movable() {
				continue
			}
			if match.Field != "" && !used[match.Field] {
				used[match.Field] = true
				continue
			}
			colliding = append(colliding, match)
		}

		next := 0
		for _, match := range colliding {
			for next < len(shuffled) && used[shuffled[next]] {
				next++
			}
			if next >= len(shuffled) {
				m.logger.Warn("more simultaneous matches than fields",
					zap.Int("slot", slot),
					zap.Int("matches", len(bySlot[slot])),
					zap.Int("fields", len(pool)))
				break
			}
			match.Field = shuffled[next]
			used[shuffled[next]] = true
		}
	}
}

func (m *Mutator) shuffleMatches(matches []*models.Match) {
	m.rng.Shuffle(len(matches), func(i, j int) {
		matches[i], matches[j] = matches[j], matches[i]
	})
}

// presentDivisions lists divisions with regular matches, in stable order.
func presentDivisions(s *models.Schedule) []models.Division {
	var present []models.Division
	for _, d := range models.Divisions {
		if len(s.DivisionMatches(d)) > 0 {
			present = append(present, d)
		}
	}
	return present
}

// movableSlotMultiset returns one slot entry per movable regular match.
func movableSlotMultiset(s *models.Schedule) []int {
	var slots []int
	for _, match := range s.RegularMatches() {
		if match.Movable() {
			slots = append(slots, match.TimeSlot)
		}
	}
	return slots
}

// movableMatches filters out locked fixtures and special activities.
func movableMatches(matches []*models.Match) []*models.Match {
	var out []*models.Match
	for _, match := range matches {
		if match.Movable() {
			out = append(out, match)
		}
	}
	return out
}
