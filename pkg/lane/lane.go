package lane

import (
	"context"
	"fmt"
	"strings"
	"time"

	"k8s.io/klog/v2"
)

// Stage is one named step of a lane. Stages run strictly in the order
// they were added.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// CompletionFunc is called exactly once after a run finishes, with the
// name of the failing stage and its error, or ("", nil) on success.
type CompletionFunc func(ctx context.Context, failedStage string, err error)

type stageResult struct {
	name     string
	duration time.Duration
}

// Pipeline runs a fixed, linear sequence of stages. The first failing
// stage aborts the whole run; there are no retries and no rollback.
type Pipeline struct {
	name       string
	stages     []Stage
	completion CompletionFunc

	results []stageResult
}

func New(name string, completion CompletionFunc) *Pipeline {
	return &Pipeline{
		name:       name,
		completion: completion,
	}
}

func (p *Pipeline) Add(stages ...Stage) {
	p.stages = append(p.stages, stages...)
}

func (p *Pipeline) Name() string {
	return p.name
}

// Run executes the stages synchronously. Interrupts are honored only
// between stages; a running stage finishes or fails on its own.
func (p *Pipeline) Run(ctx context.Context) error {
	klog.Infof("Lane %q starting with %d stages", p.name, len(p.stages))

	var runErr error
	var failedStage string

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			failedStage = stage.Name
			runErr = fmt.Errorf("lane %q interrupted before stage %q: %w", p.name, stage.Name, err)
			break
		}

		klog.V(4).Infof("Started stage %q", stage.Name)
		start := time.Now()
		err := stage.Run(ctx)
		elapsed := time.Since(start)
		klog.V(4).Infof("Finished stage %q in %v", stage.Name, elapsed)

		if err != nil {
			failedStage = stage.Name
			runErr = fmt.Errorf("stage %q failed: %w", stage.Name, err)
			break
		}

		p.results = append(p.results, stageResult{name: stage.Name, duration: elapsed})
	}

	if runErr != nil {
		klog.Errorf("Lane %q aborted: %v", p.name, runErr)
	} else {
		klog.Infof("Lane %q finished successfully", p.name)
	}

	if p.completion != nil {
		p.completion(ctx, failedStage, runErr)
	}

	return runErr
}

// Summary renders the per-stage timing table of the completed stages.
func (p *Pipeline) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lane %q summary:\n", p.name)
	for i, r := range p.results {
		fmt.Fprintf(&b, "  %2d. %-24s %v\n", i+1, r.name, r.duration.Round(time.Millisecond))
	}

	return b.String()
}
