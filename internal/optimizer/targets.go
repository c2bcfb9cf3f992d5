package optimizer

import (
	"math"
	"math/rand"

	"github.com/daveytran/roundscheduler-sub000/internal/models"
)

// pickViolationTargets selects two movable matches implicated in one of the
// highest-priority violations of the schedule's last evaluation. When a
// violation names a single movable match, a random other movable match is
// paired with it. Returns nils when no usable target exists.
func pickViolationTargets(s *models.Schedule, rules []models.Rule, rng *rand.Rand) (*models.Match, *models.Match) {
	if len(s.Violations) == 0 {
		return nil, nil
	}

	priorities := make(map[string]float64, len(rules))
	for _, r := range rules {
		priorities[r.Name()] = r.Priority()
	}
	weight := func(v models.Violation) float64 {
		if p, ok := priorities[v.Rule]; ok {
			return p
		}
		// Hard-invariant findings outrank every configured rule.
		return math.Inf(1)
	}

	top := -math.MaxFloat64
	var candidates []models.Violation
	for _, v := range s.Violations {
		w := weight(v)
		switch {
		case w > top:
			top = w
			candidates = candidates[:0]
			candidates = append(candidates, v)
		case w == top:
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	violation := candidates[rng.Intn(len(candidates))]
	var movable []*models.Match
	for _, m := range violation.Matches {
		if m.Movable() {
			movable = append(movable, m)
		}
	}

	switch {
	case len(movable) >= 2:
		i := rng.Intn(len(movable))
		j := rng.Intn(len(movable) - 1)
		if j >= i {
			j++
		}
		return movable[i], movable[j]
	case len(movable) == 1:
		if other := randomOtherMatch(s, movable[0], rng); other != nil {
			return movable[0], other
		}
	}
	return nil, nil
}

func randomOtherMatch(s *models.Schedule, exclude *models.Match, rng *rand.Rand) *models.Match {
	var pool []*models.Match
	for _, m := range s.Matches {
		if m.Movable() && !m.SameFixture(exclude) {
			pool = append(pool, m)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return pool[rng.Intn(len(pool))]
}
