package optimizer

import (
	"math/rand"
	"sort"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/internal/mutation"
)

const (
	geneticPopulation      = 20
	geneticElite           = 4
	geneticTournament      = 3
	geneticCrossoverChance = 0.5
	geneticMutationChance  = 0.3
	geneticStagnationLimit = 15
)

// Genetic evolves a population of schedules. Each step is one generation:
// the elite survive unmodified, the rest are bred from tournament-selected
// parents via divisional crossover and mutated either by a violation-targeted
// swap or a full randomize. When the best score stagnates for a configured
// number of generations the non-elite members are replaced with fresh
// randomizations to restore diversity.
type Genetic struct {
	mutator *mutation.Mutator
	rng     *rand.Rand

	population []*models.Schedule
	stagnation int
	lastBest   float64
}

// NewGenetic constructs the strategy; the population is seeded lazily from
// the search state on the first step.
func NewGenetic(mutator *mutation.Mutator, rng *rand.Rand) *Genetic {
	return &Genetic{mutator: mutator, rng: rng}
}

// Name implements Strategy.
func (g *Genetic) Name() string { return StrategyGenetic }

// Step implements Strategy: one generation per iteration.
func (g *Genetic) Step(st *State, _ int, rules []models.Rule) {
	if g.population == nil {
		g.seed(st, rules)
	}

	g.sortPopulation()

	next := make([]*models.Schedule, 0, geneticPopulation)
	next = append(next, g.population[:geneticElite]...)

	for len(next) < geneticPopulation {
		p1 := g.tournament()
		p2 := g.tournament()
		child := g.crossover(p1, p2)
		child.Evaluate(rules)

		if g.rng.Float64() < geneticMutationChance {
			child = g.mutate(child, rules)
			child.Evaluate(rules)
		}
		next = append(next, child)
	}

	g.population = next
	g.sortPopulation()

	best := g.population[0]
	st.Current = best
	st.CurrentScore = best.Score
	st.acceptBest(best)

	if best.Score < g.lastBest {
		g.lastBest = best.Score
		g.stagnation = 0
	} else {
		g.stagnation++
	}
	if g.stagnation >= geneticStagnationLimit {
		g.refresh(rules)
	}
}

func (g *Genetic) seed(st *State, rules []models.Rule) {
	g.population = make([]*models.Schedule, geneticPopulation)
	first := st.Current.DeepCopy()
	first.Evaluate(rules)
	g.population[0] = first
	for i := 1; i < geneticPopulation; i++ {
		member := g.mutator.Randomize(st.Current)
		member.Evaluate(rules)
		g.population[i] = member
	}
	g.lastBest = st.BestScore
}

func (g *Genetic) sortPopulation() {
	sort.SliceStable(g.population, func(i, j int) bool {
		return g.population[i].Score < g.population[j].Score
	})
}

// tournament returns the best of a random sample of the population.
func (g *Genetic) tournament() *models.Schedule {
	winner := g.population[g.rng.Intn(len(g.population))]
	for i := 1; i < geneticTournament; i++ {
		challenger := g.population[g.rng.Intn(len(g.population))]
		if challenger.Score < winner.Score {
			winner = challenger
		}
	}
	return winner
}

// crossover copies parent 1 and, per division with 50% probability, overlays
// that division's slot and field pattern from parent 2, then repairs fields
// and referees.
func (g *Genetic) crossover(p1, p2 *models.Schedule) *models.Schedule {
	child := p1.DeepCopy()
	for _, d := range models.Divisions {
		if g.rng.Float64() >= geneticCrossoverChance {
			continue
		}
		from := p2.DivisionMatches(d)
		into := child.DivisionMatches(d)
		n := len(from)
		if len(into) < n {
			n = len(into)
		}
		for i := 0; i < n; i++ {
			into[i].TimeSlot = from[i].TimeSlot
			into[i].Field = from[i].Field
		}
	}
	g.mutator.FixFieldConflicts(child)
	g.mutator.ReshuffleReferees(child)
	child.SortMatches()
	return child
}

// mutate performs a violation-targeted swap when the child has violations,
// otherwise a full randomize.
func (g *Genetic) mutate(child *models.Schedule, rules []models.Rule) *models.Schedule {
	if len(child.Violations) > 0 {
		if a, b := pickViolationTargets(child, rules, g.rng); a != nil {
			if swapped, ok := g.mutator.SwapMatches(child, a, b); ok {
				return swapped
			}
		}
	}
	return g.mutator.Randomize(child)
}

// refresh replaces the non-elite members with fresh randomizations of the
// current best to restore diversity after stagnation.
func (g *Genetic) refresh(rules []models.Rule) {
	for i := geneticElite; i < len(g.population); i++ {
		member := g.mutator.Randomize(g.population[0])
		member.Evaluate(rules)
		g.population[i] = member
	}
	g.stagnation = 0
}
