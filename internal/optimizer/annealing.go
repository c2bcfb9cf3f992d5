package optimizer

import (
	"math"
	"math/rand"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/internal/mutation"
)

const (
	initialTemperature = 100.0
	coolingRate        = 0.995
)

// Annealing is classic simulated annealing over randomized candidates.
// Strictly better candidates are always accepted; worse ones with
// probability exp((current-candidate)/temperature). Candidates carrying a
// critical violation are rejected outright. The temperature cools
// geometrically every iteration whether or not the candidate was accepted.
type Annealing struct {
	mutator     *mutation.Mutator
	rng         *rand.Rand
	temperature float64
}

// NewAnnealing constructs the strategy with the default temperature.
func NewAnnealing(mutator *mutation.Mutator, rng *rand.Rand) *Annealing {
	return &Annealing{mutator: mutator, rng: rng, temperature: initialTemperature}
}

// Name implements Strategy.
func (a *Annealing) Name() string { return StrategyAnnealing }

// Step implements Strategy.
func (a *Annealing) Step(st *State, _ int, rules []models.Rule) {
	defer a.cool()

	candidate := a.mutator.Randomize(st.Current)
	candidate.Evaluate(rules)

	if candidate.HasCritical() {
		return
	}

	if a.accepts(candidate.Score, st.CurrentScore) {
		st.Current = candidate
		st.CurrentScore = candidate.Score
	}
	st.acceptBest(candidate)
}

func (a *Annealing) accepts(candidate, current float64) bool {
	if candidate < current {
		return true
	}
	if a.temperature <= 0 {
		return false
	}
	return a.rng.Float64() < math.Exp((current-candidate)/a.temperature)
}

func (a *Annealing) cool() {
	a.temperature *= coolingRate
}
