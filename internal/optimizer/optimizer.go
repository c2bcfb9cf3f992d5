// Package optimizer drives the metaheuristic search over tournament
// schedules. A Strategy is a step function over shared search state; the
// generic driver evaluates candidates through the rule engine, keeps
// best-so-far bookkeeping and emits progress snapshots to an optional
// observer. The loop is single-threaded and cooperative: it checks for
// cancellation at fixed intervals and never interrupts mid-iteration.
package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
	"github.com/daveytran/roundscheduler-sub000/internal/mutation"
)

// Strategy names accepted by the registry.
const (
	StrategyAnnealing = "annealing"
	StrategyGenetic   = "genetic"
	StrategyStrategic = "strategic"
)

const (
	yieldInterval    = 100
	snapshotInterval = 100
)

// State is the search state shared between the driver and a strategy:
// the current schedule the strategy walks from, and the best schedule found
// so far. Strategy-private storage (temperature, population) lives on the
// strategy itself.
type State struct {
	Current      *models.Schedule
	CurrentScore float64
	Best         *models.Schedule
	BestScore    float64
}

// acceptBest records a strictly better candidate as the new best, keeping its
// violations for reporting. Best updates are independent of acceptance.
func (st *State) acceptBest(candidate *models.Schedule) bool {
	if candidate.Score >= st.BestScore {
		return false
	}
	best := candidate.DeepCopy()
	best.Violations = append([]models.Violation(nil), candidate.Violations...)
	st.Best = best
	st.BestScore = candidate.Score
	return true
}

// Strategy advances the search by one iteration. Step evaluates whatever
// candidates it generates and updates the state's current and best entries
// under the shared acceptance contract.
type Strategy interface {
	Name() string
	Step(st *State, iteration int, rules []models.Rule)
}

// Snapshot is the progress view handed to observers.
type Snapshot struct {
	Iteration    int                `json:"iteration"`
	Progress     float64            `json:"progress"`
	CurrentScore float64            `json:"current_score"`
	BestScore    float64            `json:"best_score"`
	Violations   []models.Violation `json:"violations,omitempty"`
	Best         *models.Schedule   `json:"best,omitempty"`
}

// Observer receives periodic progress snapshots during optimization.
type Observer func(Snapshot)

// Optimizer owns the injected randomness and the mutation operators and runs
// strategies against schedules.
type Optimizer struct {
	mutator *mutation.Mutator
	rng     *rand.Rand
	logger  *zap.Logger
}

// New constructs an Optimizer. A nil rng falls back to a time-seeded source.
func New(rng *rand.Rand, logger *zap.Logger) *Optimizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{
		mutator: mutation.New(rng, logger),
		rng:     rng,
		logger:  logger,
	}
}

// Mutator exposes the operators for callers composing their own moves.
func (o *Optimizer) Mutator() *mutation.Mutator { return o.mutator }

// NewStrategy builds a registered strategy by name.
func (o *Optimizer) NewStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyAnnealing:
		return NewAnnealing(o.mutator, o.rng), nil
	case StrategyGenetic:
		return NewGenetic(o.mutator, o.rng), nil
	case StrategyStrategic:
		return NewStrategic(o.mutator, o.rng), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// Optimize runs the strategy for the given iteration budget and returns the
// best schedule found, never worse than the starting schedule. Exhausting the
// budget is normal termination, not an error. Cancellation is cooperative:
// the context is consulted every yield interval and the best-so-far schedule
// is returned.
func (o *Optimizer) Optimize(ctx context.Context, s *models.Schedule, rules []models.Rule, iterations int, observer Observer, strategy Strategy) *models.Schedule {
	if strategy == nil {
		strategy = NewAnnealing(o.mutator, o.rng)
	}

	current := s.DeepCopy()
	score := current.Evaluate(rules)

	st := &State{
		Current:      current,
		CurrentScore: score,
		BestScore:    score,
	}
	st.Best = current.DeepCopy()
	st.Best.Violations = append([]models.Violation(nil), current.Violations...)

	emit := func(iteration int) {
		if observer == nil {
			return
		}
		observer(Snapshot{
			Iteration:    iteration,
			Progress:     progress(iteration, iterations),
			CurrentScore: st.CurrentScore,
			BestScore:    st.BestScore,
			Violations:   st.Best.Violations,
			Best:         st.Best,
		})
	}

	o.logger.Debug("optimization starting",
		zap.String("strategy", strategy.Name()),
		zap.Int("iterations", iterations),
		zap.Float64("initial_score", score))
	emit(0)

	for i := 1; i <= iterations; i++ {
		if i%yieldInterval == 0 && ctx.Err() != nil {
			o.logger.Debug("optimization cancelled", zap.Int("iteration", i))
			emit(i)
			return st.Best
		}

		before := st.BestScore
		strategy.Step(st, i, rules)

		if st.BestScore < before || i%snapshotInterval == 0 || i == iterations {
			emit(i)
		}
	}

	o.logger.Debug("optimization finished",
		zap.Float64("best_score", st.BestScore),
		zap.Int("iterations", iterations))
	return st.Best
}

func progress(iteration, total int) float64 {
	if total <= 0 {
		return 1
	}
	return float64(iteration) / float64(total)
}
