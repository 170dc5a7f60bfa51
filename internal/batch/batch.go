package batch

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/trustscope/trustscope/internal/analysis"
)

// Analyzer runs a single analysis
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Record, error)
}

// Job is one request to analyze; Source names where it came from, e.g. a file path
type Job struct {
	Source  string
	Request analysis.Request
}

// Outcome is the result of a Job. Exactly one of Record and Err is set.
type Outcome struct {
	Source string           `json:"source"`
	Record *analysis.Record `json:"record,omitempty"`
	Err    error            `json:"-"`
	Error  string           `json:"error,omitempty"`
}

// Runner analyzes jobs with a fixed number of workers
type Runner struct {
	analyzer Analyzer
	workers  int
	logger   hclog.Logger
}

// New creates a runner; workers below 1 means one worker
func New(analyzer Analyzer, workers int, logger hclog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{analyzer: analyzer, workers: workers, logger: logger.Named("batch")}
}

type task struct {
	index int
	job   Job
}

// Run analyzes all jobs and returns their outcomes in the order of jobs.
// Jobs not started before ctx is done fail with the context error.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	if len(jobs) == 0 {
		return outcomes
	}

	r.logger.Info("analyzing batch", "jobs", len(jobs), "workers", r.workers)

	tasks := make(chan task, len(jobs))
	for i, job := range jobs {
		tasks <- task{index: i, job: job}
	}
	close(tasks)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go r.worker(ctx, &wg, tasks, outcomes)
	}

	wg.Wait()
	r.logger.Info("batch complete", "jobs", len(jobs))
	return outcomes
}

// worker writes each outcome to its own slot, so no locking is needed
func (r *Runner) worker(ctx context.Context, wg *sync.WaitGroup, tasks <-chan task, outcomes []Outcome) {
	defer wg.Done()

	for t := range tasks {
		out := Outcome{Source: t.job.Source}
		if err := ctx.Err(); err != nil {
			out.Err = err
		} else {
			out.Record, out.Err = r.analyzer.Analyze(ctx, t.job.Request)
		}

		if out.Err != nil {
			out.Record = nil
			out.Error = out.Err.Error()
			r.logger.Warn("analysis failed", "source", out.Source, "error", out.Err)
		} else {
			r.logger.Debug("analysis complete", "source", out.Source, "score", out.Record.Result.Score)
		}
		outcomes[t.index] = out
	}
}
