package optimizer

import (
	"math"
	"math/rand"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/internal/mutation"
)

const (
	strategicSwapBias     = 0.8
	strategicRejectLimit  = 50
	strategicTempBoost    = 2.0
	strategicMaxBoostTemp = initialTemperature
)

// Strategic is targeted local search: while the current schedule has
// violations it mostly swaps matches named in one of the highest-priority
// violations instead of randomizing globally. Consecutive rejections are
// tracked and the temperature is boosted after a threshold to escape local
// optima. Acceptance and bookkeeping follow the annealing contract.
type Strategic struct {
	mutator     *mutation.Mutator
	rng         *rand.Rand
	temperature float64
	rejections  int
}

// NewStrategic constructs the strategy with the default temperature.
func NewStrategic(mutator *mutation.Mutator, rng *rand.Rand) *Strategic {
	return &Strategic{mutator: mutator, rng: rng, temperature: initialTemperature}
}

// Name implements Strategy.
func (s *Strategic) Name() string { return StrategyStrategic }

// Step implements Strategy.
func (s *Strategic) Step(st *State, _ int, rules []models.Rule) {
	defer s.cool()

	candidate := s.candidate(st, rules)
	candidate.Evaluate(rules)

	if candidate.HasCritical() {
		s.reject()
		return
	}

	if s.accepts(candidate.Score, st.CurrentScore) {
		st.Current = candidate
		st.CurrentScore = candidate.Score
		s.rejections = 0
	} else {
		s.reject()
	}
	st.acceptBest(candidate)
}

// candidate biases generation toward violation-targeted swaps, falling back
// to a full randomize when there is nothing to target or the swap is not
// possible.
func (s *Strategic) candidate(st *State, rules []models.Rule) *models.Schedule {
	if len(st.Current.Violations) > 0 && s.rng.Float64() < strategicSwapBias {
		if a, b := pickViolationTargets(st.Current, rules, s.rng); a != nil {
			if swapped, ok := s.mutator.SwapMatches(st.Current, a, b); ok {
				return swapped
			}
		}
	}
	return s.mutator.Randomize(st.Current)
}

func (s *Strategic) accepts(candidate, current float64) bool {
	if candidate < current {
		return true
	}
	if s.temperature <= 0 {
		return false
	}
	return s.rng.Float64() < math.Exp((current-candidate)/s.temperature)
}

func (s *Strategic) reject() {
	s.rejections++
	if s.rejections >= strategicRejectLimit {
		s.temperature = math.Min(s.temperature*strategicTempBoost, strategicMaxBoostTemp)
		s.rejections = 0
	}
}

func (s *Strategic) cool() {
	s.temperature *= coolingRate
}
