package signals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/trustscope/trustscope/internal/score"
)

// ErrNoData means the collector had nothing to work with for this target.
// Such collectors are left out of the signal map entirely.
var ErrNoData = errors.New("no data for signal")

// Target is what collectors look at
type Target struct {
	URL           string
	Domain        string
	Kind          score.TargetKind
	Content       string
	Salary        float64
	MarketSalary  float64
	ContactEmail  string
	CompanyDomain string
}

// Collector produces one named signal for a target
type Collector interface {
	Name() string
	Collect(ctx context.Context, target Target) (score.SignalValue, error)
}

type collected struct {
	name  string
	value score.SignalValue
	skip  bool
}

// Collect runs every collector concurrently, each bounded by timeout, and
// waits for all of them. A collector that fails or runs out of time is
// recorded as unavailable; cancelling ctx ends the wait early the same way.
func Collect(ctx context.Context, collectors []Collector, target Target, timeout time.Duration, logger hclog.Logger) map[string]score.SignalValue {
	results := make(chan collected, len(collectors))

	for _, c := range collectors {
		go func(c Collector) {
			cctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan collected, 1)
			go func() {
				v, err := c.Collect(cctx, target)
				switch {
				case errors.Is(err, ErrNoData):
					done <- collected{name: c.Name(), skip: true}
				case err != nil:
					logger.Warn("collector failed", "signal", c.Name(), "error", err)
					done <- collected{name: c.Name(), value: unavailable(v.Kind, err.Error())}
				default:
					done <- collected{name: c.Name(), value: v}
				}
			}()

			select {
			case res := <-done:
				results <- res
			case <-cctx.Done():
				reason := "cancelled"
				if errors.Is(cctx.Err(), context.DeadlineExceeded) {
					reason = fmt.Sprintf("timed out after %s", timeout)
				}
				logger.Warn("collector did not finish", "signal", c.Name(), "reason", reason)
				results <- collected{name: c.Name(), value: unavailable("", reason)}
			}
		}(c)
	}

	signals := make(map[string]score.SignalValue, len(collectors))
	for range collectors {
		res := <-results
		if res.skip {
			continue
		}
		signals[res.name] = res.value
	}
	return signals
}

func unavailable(kind, reason string) score.SignalValue {
	return score.SignalValue{Kind: kind, Unavailable: true, Reason: reason}
}

// Static returns a collector that always yields value, used for signals the
// caller computed elsewhere
func Static(name string, value score.SignalValue) Collector {
	return staticCollector{name: name, value: value}
}

type staticCollector struct {
	name  string
	value score.SignalValue
}

func (s staticCollector) Name() string { return s.name }

func (s staticCollector) Collect(ctx context.Context, target Target) (score.SignalValue, error) {
	return s.value, nil
}
