// Package risk defines the scoring boundary for DPR evaluation. The only
// implementation today is MockScorer: risk levels and factors are
// generated, not inferred. A real model service plugs in behind Scorer
// once the scoring API integration lands.
package risk

import (
	"context"
	"math/rand"
	"sync"
)

// Level is the coarse risk classification assigned to a DPR.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Levels lists the classification values, in ascending severity.
var Levels = []Level{LevelLow, LevelMedium, LevelHigh}

// Assessment is the outcome of scoring one DPR.
type Assessment struct {
	Level   Level
	Factors []string
}

// Scorer evaluates a project report. Implementations must be safe for
// concurrent use.
type Scorer interface {
	Score(ctx context.Context, title string) (Assessment, error)
}

// factorsByLevel holds the canned explanations the mock hands out.
var factorsByLevel = map[Level][]string{
	LevelHigh: {
		"Budget overestimation detected",
		"Timeline inconsistencies found",
		"Missing regulatory compliance details",
	},
	LevelMedium: {
		"Resource allocation suboptimal",
		"Minor timeline inconsistencies",
	},
	LevelLow: {
		"No significant issues detected",
	},
}

// MockScorer assigns a uniformly random level with canned factors.
type MockScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockScorer creates a mock scorer seeded from seed, so tests can pin
// the outcome.
func NewMockScorer(seed int64) *MockScorer {
	return &MockScorer{rng: rand.New(rand.NewSource(seed))}
}

// Score picks a random level and returns its canned factor set.
func (m *MockScorer) Score(_ context.Context, _ string) (Assessment, error) {
	m.mu.Lock()
	level := Levels[m.rng.Intn(len(Levels))]
	m.mu.Unlock()

	factors := make([]string, len(factorsByLevel[level]))
	copy(factors, factorsByLevel[level])

	return Assessment{Level: level, Factors: factors}, nil
}

// FactorsFor returns the canned factor set for a level.
func FactorsFor(level Level) []string {
	factors := make([]string, len(factorsByLevel[level]))
	copy(factors, factorsByLevel[level])
	return factors
}
