package mutation

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

func team(name string, d models.Division) *models.Team {
	return &models.Team{Name: name, Division: d}
}

func fixtureSchedule(t *testing.T) *models.Schedule {
	t.Helper()
	a := team("A", models.DivisionMixed)
	b := team("B", models.DivisionMixed)
	c := team("C", models.DivisionMixed)
	d := team("D", models.DivisionMixed)
	g1 := team("G1", models.DivisionGendered)
	g2 := team("G2", models.DivisionGendered)
	g3 := team("G3", models.DivisionGendered)
	g4 := team("G4", models.DivisionGendered)

	matches := []*models.Match{
		{Team1: a, Team2: b, TimeSlot: 0, Division: models.DivisionMixed, Activity: models.ActivitySetup, Locked: true},
		{Team1: a, Team2: b, Referee: c, TimeSlot: 1, Field: "Field 1", Division: models.DivisionMixed, Activity: models.ActivityRegular},
		{Team1: g1, Team2: g2, Referee: g3, TimeSlot: 1, Field: "Field 2", Division: models.DivisionGendered, Activity: models.ActivityRegular},
		{Team1: c, Team2: d, Referee: a, TimeSlot: 2, Field: "Field 1", Division: models.DivisionMixed, Activity: models.ActivityRegular},
		{Team1: g3, Team2: g4, Referee: g1, TimeSlot: 2, Field: "Field 2", Division: models.DivisionGendered, Activity: models.ActivityRegular},
		{Team1: a, Team2: c, Referee: b, TimeSlot: 3, Field: "Field 1", Division: models.DivisionMixed, Activity: models.ActivityRegular},
		{Team1: g2, Team2: g4, Referee: g3, TimeSlot: 3, Field: "Field 2", Division: models.DivisionGendered, Activity: models.ActivityRegular},
		{Team1: c, Team2: d, TimeSlot: 4, Division: models.DivisionMixed, Activity: models.ActivityPackingDown, Locked: true},
	}
	s, err := models.NewSchedule(matches)
	require.NoError(t, err)
	return s
}

func newTestMutator(seed int64) *Mutator {
	return New(rand.New(rand.NewSource(seed)), zap.NewNop())
}

func slotMultiset(s *models.Schedule) []int {
	var slots []int
	for _, m := range s.RegularMatches() {
		slots = append(slots, m.TimeSlot)
	}
	sort.Ints(slots)
	return slots
}

func TestRandomizeNeverMovesSpecialActivities(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(1)

	for i := 0; i < 50; i++ {
		candidate := m.Randomize(s)
		require.Len(t, candidate.Matches, len(s.Matches))

		var setup, packing *models.Match
		for _, match := range candidate.Matches {
			switch match.Activity {
			case models.ActivitySetup:
				setup = match
			case models.ActivityPackingDown:
				packing = match
			}
		}
		require.NotNil(t, setup)
		require.NotNil(t, packing)
		assert.Equal(t, 0, setup.TimeSlot)
		assert.Equal(t, 4, packing.TimeSlot)
	}
}

func TestRandomizeKeepsLockedFixturesPinned(t *testing.T) {
	s := fixtureSchedule(t)
	var locked *models.Match
	for _, match := range s.Matches {
		if match.Activity == models.ActivityRegular && match.Division == models.DivisionMixed && match.TimeSlot == 1 {
			match.Locked = true
			locked = match
		}
	}
	require.NotNil(t, locked)

	m := newTestMutator(42)
	for i := 0; i < 50; i++ {
		candidate := m.Randomize(s)
		found := candidate.FindFixture(locked)
		require.NotNil(t, found, "locked fixture left slot %d field %q", locked.TimeSlot, locked.Field)
		assert.True(t, found.Locked)
	}
}

func TestFixFieldConflictsRespectsLockedFields(t *testing.T) {
	a := team("A", models.DivisionMixed)
	b := team("B", models.DivisionMixed)
	c := team("C", models.DivisionMixed)
	d := team("D", models.DivisionMixed)

	pinned := &models.Match{Team1: a, Team2: b, TimeSlot: 1, Field: "Field 1", Division: models.DivisionMixed, Activity: models.ActivityRegular, Locked: true}
	colliding := &models.Match{Team1: c, Team2: d, TimeSlot: 1, Field: "Field 1", Division: models.DivisionMixed, Activity: models.ActivityRegular}
	other := &models.Match{Team1: a, Team2: c, TimeSlot: 2, Field: "Field 2", Division: models.DivisionMixed, Activity: models.ActivityRegular}
	s, err := models.NewSchedule([]*models.Match{pinned, colliding, other})
	require.NoError(t, err)

	m := newTestMutator(5)
	m.FixFieldConflicts(s)

	assert.Equal(t, "Field 1", pinned.Field)
	assert.Equal(t, "Field 2", colliding.Field)
}

func TestRandomizeDoesNotMutateInput(t *testing.T) {
	s := fixtureSchedule(t)
	before := slotMultiset(s)
	m := newTestMutator(2)

	for i := 0; i < 20; i++ {
		m.Randomize(s)
	}
	assert.Equal(t, before, slotMultiset(s))
}

func TestRandomizeKeepsSlotsWithinExistingSet(t *testing.T) {
	s := fixtureSchedule(t)
	original := map[int]bool{}
	for _, slot := range s.RegularSlots() {
		original[slot] = true
	}
	m := newTestMutator(3)

	for i := 0; i < 50; i++ {
		candidate := m.Randomize(s)
		for _, match := range candidate.RegularMatches() {
			assert.True(t, original[match.TimeSlot], "slot %d was invented", match.TimeSlot)
		}
	}
}

func TestRandomizeLeavesNoFieldConflicts(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(4)

	for i := 0; i < 50; i++ {
		candidate := m.Randomize(s)
		bySlot := candidate.MatchesBySlot()
		for slot, matches := range bySlot {
			seen := map[string]bool{}
			for _, match := range matches {
				if match.Special() {
					continue
				}
				assert.False(t, seen[match.Field], "slot %d has a field collision", slot)
				seen[match.Field] = true
			}
		}
	}
}

func TestRandomizeIsDeterministicForASeed(t *testing.T) {
	s := fixtureSchedule(t)

	first := newTestMutator(7).Randomize(s)
	second := newTestMutator(7).Randomize(s)

	require.Len(t, second.Matches, len(first.Matches))
	for i := range first.Matches {
		assert.Equal(t, first.Matches[i].TimeSlot, second.Matches[i].TimeSlot)
		assert.Equal(t, first.Matches[i].Field, second.Matches[i].Field)
	}
}

func TestSwapMatches(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(5)

	a := s.Matches[1]
	b := s.Matches[5]
	slotA, fieldA := a.TimeSlot, a.Field
	slotB, fieldB := b.TimeSlot, b.Field

	swapped, ok := m.SwapMatches(s, a, b)
	require.True(t, ok)

	ca := swapped.FindFixture(&models.Match{Team1: a.Team1, Team2: a.Team2, TimeSlot: slotB, Field: fieldB})
	cb := swapped.FindFixture(&models.Match{Team1: b.Team1, Team2: b.Team2, TimeSlot: slotA, Field: fieldA})
	require.NotNil(t, ca)
	require.NotNil(t, cb)

	// Original untouched.
	assert.Equal(t, slotA, a.TimeSlot)
	assert.Equal(t, slotB, b.TimeSlot)
}

func TestSwapMatchesFailsOnLockedOrMissing(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(6)

	setup := s.Matches[0]
	_, ok := m.SwapMatches(s, setup, s.Matches[1])
	assert.False(t, ok, "special activities are implicitly locked")

	stranger := &models.Match{
		Team1:    team("Z1", models.DivisionMixed),
		Team2:    team("Z2", models.DivisionMixed),
		TimeSlot: 1,
		Field:    "Field 1",
		Division: models.DivisionMixed,
	}
	_, ok = m.SwapMatches(s, stranger, s.Matches[1])
	assert.False(t, ok, "unknown fixture cannot be swapped")

	locked := s.Matches[1].Clone()
	locked.Locked = true
	withLocked := s.DeepCopy()
	withLocked.Matches[1].Locked = true
	_, ok = m.SwapMatches(withLocked, locked, withLocked.Matches[3])
	assert.False(t, ok, "locked matches cannot be swapped")
}

func TestSwapTimeSlots(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(8)

	swapped, ok := m.SwapTimeSlots(s, 1, 3)
	require.True(t, ok)

	var slot1, slot3 int
	for _, match := range swapped.RegularMatches() {
		if match.TimeSlot == 1 {
			slot1++
		}
		if match.TimeSlot == 3 {
			slot3++
		}
	}
	assert.Equal(t, 2, slot1)
	assert.Equal(t, 2, slot3)
}

func TestSwapTimeSlotsFailsOnSpecialActivity(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(9)

	_, ok := m.SwapTimeSlots(s, 0, 2)
	assert.False(t, ok, "setup slot is immovable")

	_, ok = m.SwapTimeSlots(s, 2, 4)
	assert.False(t, ok, "packing-down slot is immovable")
}

func TestSwapTimeSlotsWithEmptySlotSucceeds(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(10)

	swapped, ok := m.SwapTimeSlots(s, 2, 9)
	require.True(t, ok)

	count := 0
	for _, match := range swapped.RegularMatches() {
		if match.TimeSlot == 9 {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestMoveMatchesToTimeSlot(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(11)

	// Slot 3 already holds two matches on the schedule's two fields.
	_, ok := m.MoveMatchesToTimeSlot(s, []*models.Match{s.Matches[1]}, 3)
	assert.False(t, ok, "target slot is already at field capacity")

	// A self-move into the match's own slot is allowed: occupancy excludes
	// the moved match and its field is reassigned from the free pool.
	moved, ok := m.MoveMatchesToTimeSlot(s, []*models.Match{s.Matches[1]}, 1)
	require.True(t, ok)
	assert.Len(t, moved.Matches, len(s.Matches))
}

func TestMoveMatchesToTimeSlotFailures(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(12)

	_, ok := m.MoveMatchesToTimeSlot(s, nil, 1)
	assert.False(t, ok, "no matches given")

	_, ok = m.MoveMatchesToTimeSlot(s, []*models.Match{s.Matches[1]}, 99)
	assert.False(t, ok, "target slot does not exist")

	_, ok = m.MoveMatchesToTimeSlot(s, []*models.Match{s.Matches[1]}, 4)
	assert.False(t, ok, "target slot holds a special activity")

	_, ok = m.MoveMatchesToTimeSlot(s, []*models.Match{s.Matches[0]}, 1)
	assert.False(t, ok, "special activities cannot be moved")
}

func TestFixFieldConflicts(t *testing.T) {
	a := team("A", models.DivisionMixed)
	b := team("B", models.DivisionMixed)
	c := team("C", models.DivisionMixed)
	d := team("D", models.DivisionMixed)

	s, err := models.NewSchedule([]*models.Match{
		{Team1: a, Team2: b, TimeSlot: 1, Field: "Field 1", Division: models.DivisionMixed, Activity: models.ActivityRegular},
		{Team1: c, Team2: d, TimeSlot: 1, Field: "Field 1", Division: models.DivisionMixed, Activity: models.ActivityRegular},
		{Team1: a, Team2: c, TimeSlot: 2, Field: "Field 2", Division: models.DivisionMixed, Activity: models.ActivityRegular},
	})
	require.NoError(t, err)

	m := newTestMutator(13)
	m.FixFieldConflicts(s)

	bySlot := s.MatchesBySlot()
	seen := map[string]bool{}
	for _, match := range bySlot[1] {
		assert.False(t, seen[match.Field])
		seen[match.Field] = true
	}
}

func TestReshuffleRefereesKeepsAssignmentsLegal(t *testing.T) {
	s := fixtureSchedule(t)
	m := newTestMutator(14)

	for i := 0; i < 20; i++ {
		candidate := s.DeepCopy()
		m.ReshuffleReferees(candidate)

		bySlot := candidate.MatchesBySlot()
		for slot, matches := range bySlot {
			reffing := map[string]bool{}
			playing := map[string]bool{}
			for _, match := range matches {
				for _, team := range match.Teams() {
					playing[team.Key()] = true
				}
			}
			for _, match := range matches {
				if match.Referee == nil {
					continue
				}
				key := match.Referee.Key()
				assert.False(t, match.Plays(match.Referee), "slot %d: referee plays its own game", slot)
				assert.False(t, playing[key], "slot %d: referee plays elsewhere in the slot", slot)
				assert.False(t, reffing[key], "slot %d: referee already referees another match", slot)
				reffing[key] = true
			}
		}
	}
}

func TestReshuffleRefereesReusesExistingPool(t *testing.T) {
	s := fixtureSchedule(t)
	original := map[string]bool{}
	for _, match := range s.Matches {
		if match.Referee != nil {
			original[match.Referee.Key()] = true
		}
	}

	m := newTestMutator(15)
	candidate := s.DeepCopy()
	m.ReshuffleReferees(candidate)

	// Main pass draws from the original pool; the repair pass may extend
	// it to division teams, which in this fixture is the same set.
	for _, match := range candidate.Matches {
		if match.Referee == nil || match.Special() {
			continue
		}
		key := match.Referee.Key()
		if !original[key] {
			divisionTeam := false
			for _, other := range candidate.DivisionMatches(match.Division) {
				if other.Plays(match.Referee) {
					divisionTeam = true
					break
				}
			}
			assert.True(t, divisionTeam, "referee %s is neither pooled nor a division team", key)
		}
	}
}
