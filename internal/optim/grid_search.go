// Package optim tunes run parameters by exhaustive search.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/multierr"

	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/experiment"
)

// Goal is the direction a metric is optimized in.
type Goal int

const (
	Minimize Goal = iota
	Maximize
)

// BuildFunc returns a set-up experiment for one parameter combination.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d parameters for %d ranges", dynamo.ErrInvalidArgument, len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("%w: empty range for %s", dynamo.ErrInvalidArgument, params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Trial is one evaluated parameter combination.
type Trial struct {
	Params map[string]float64
	Value  float64
}

// Search runs every combination and returns the trials ordered best first.
// Failed combinations are skipped; their errors are returned only when no
// combination succeeded.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string, goal Goal) ([]Trial, error) {
	var (
		trials []Trial
		errs   error
	)
	var walk func(depth int, current map[string]float64) error
	walk = func(depth int, current map[string]float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if depth == len(g.paramNames) {
			val, err := evaluate(ctx, build, current, metricName)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%v: %w", current, err))
				return nil
			}
			trials = append(trials, Trial{Params: current, Value: val})
			return nil
		}

		name := g.paramNames[depth]
		for _, val := range g.ranges[depth] {
			next := make(map[string]float64, len(current)+1)
			for k, v := range current {
				next[k] = v
			}
			next[name] = val
			if err := walk(depth+1, next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0, map[string]float64{}); err != nil {
		return trials, err
	}
	if len(trials) == 0 {
		return nil, errs
	}

	sort.SliceStable(trials, func(i, j int) bool {
		if goal == Maximize {
			return trials[i].Value > trials[j].Value
		}
		return trials[i].Value < trials[j].Value
	})
	return trials, nil
}

func evaluate(ctx context.Context, build BuildFunc, params map[string]float64, metricName string) (float64, error) {
	exp, err := build(params)
	if err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("%w: run has no metric %q", dynamo.ErrInvalidArgument, metricName)
	}
	if math.IsNaN(val) {
		return 0, fmt.Errorf("%w: metric %q is NaN", dynamo.ErrNumericalDegeneracy, metricName)
	}
	return val, nil
}
