// Package benchmark resolves the expected-performance profile a
// monitoring session runs against: explicit id override, best parameter
// match, or the documented default.
package benchmark

import (
	"os"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"fxbot/internal/models"
	"fxbot/pkg/logger"
)

type Resolver struct {
	path string
}

func NewResolver(path string) *Resolver {
	return &Resolver{path: path}
}

// Default is the conservative profile used when no optimizer results are
// available: break-even expectancy, no drawdown allowance, sparse trading.
func Default() models.Benchmark {
	return models.Benchmark{
		ID:                   "default",
		ExpectedSharpe:       0.5,
		WinRate:              0.5,
		TotalTrades:          100,
		Expectancy:           0,
		MaxConsecutiveLosses: 5,
		PeriodDays:           365,
	}
}

// Resolve picks a benchmark from the results file. An explicit id must
// exist; otherwise the closest (fast, slow) parameter match wins; a
// missing or empty file yields Default.
func (r *Resolver) Resolve(id string, fastPeriod, slowPeriod int) (models.Benchmark, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("benchmark file %s missing, using default profile", r.path)
			return Default(), nil
		}
		return models.Benchmark{}, errors.Wrapf(err, "read benchmarks %s", r.path)
	}

	var list []models.Benchmark
	if err := sonic.Unmarshal(data, &list); err != nil {
		return models.Benchmark{}, errors.Wrapf(err, "decode benchmarks %s", r.path)
	}
	if len(list) == 0 {
		return Default(), nil
	}

	if id != "" {
		for _, b := range list {
			if b.ID == id {
				return b, nil
			}
		}
		return models.Benchmark{}, errors.Errorf("benchmark id %q not found in %s", id, r.path)
	}

	best := list[0]
	bestDist := paramDist(best, fastPeriod, slowPeriod)
	for _, b := range list[1:] {
		if d := paramDist(b, fastPeriod, slowPeriod); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best, nil
}

func paramDist(b models.Benchmark, fast, slow int) int {
	return abs(b.FastPeriod-fast) + abs(b.SlowPeriod-slow)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
