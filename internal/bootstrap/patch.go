package bootstrap

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// StepState is the lifecycle of a single patch step within one run:
// pending -> running -> applied | skipped. Steps are never retried.
type StepState string

const (
	StepPending StepState = "pending"
	StepRunning StepState = "running"
	StepApplied StepState = "applied"
	StepSkipped StepState = "skipped"
)

// PatchStep is an optional mutation of shared state S.
type PatchStep[S any] interface {
	Name() string
	Apply(ctx context.Context, state S) error
}

// PatchFunc adapts a plain function into a PatchStep.
type PatchFunc[S any] struct {
	StepName string
	Fn       func(ctx context.Context, state S) error
}

func (p PatchFunc[S]) Name() string { return p.StepName }

func (p PatchFunc[S]) Apply(ctx context.Context, state S) error {
	return p.Fn(ctx, state)
}

// StepResult is the final state of one step. Failure details are logged,
// not kept.
type StepResult struct {
	Name     string
	State    StepState
	Duration time.Duration
}

// PatchRunner applies steps in order, isolating each one.
type PatchRunner[S any] struct {
	steps    []PatchStep[S]
	observer Observer
	logger   Logger
}

func NewPatchRunner[S any](steps []PatchStep[S], observer Observer, logger Logger) *PatchRunner[S] {
	if observer == nil {
		observer = nopObserver{}
	}
	return &PatchRunner[S]{steps: steps, observer: observer, logger: logger}
}

// Run attempts every step exactly once and never returns an error.
func (r *PatchRunner[S]) Run(ctx context.Context, state S) []StepResult {
	results := make([]StepResult, len(r.steps))
	for i, step := range r.steps {
		results[i] = StepResult{Name: step.Name(), State: StepPending}
	}

	for i, step := range r.steps {
		results[i].State = StepRunning
		start := time.Now()

		err := r.apply(ctx, step, state)

		results[i].Duration = time.Since(start)
		if err != nil {
			results[i].State = StepSkipped
			r.logger.Warn("patch step skipped", "step", step.Name(), "error", err)
		} else {
			results[i].State = StepApplied
			r.logger.Debug("patch step applied", "step", step.Name(), "duration", results[i].Duration)
		}
		r.observer.PatchStepFinished(step.Name(), results[i].State)
	}

	return results
}

// apply is the isolation boundary for one step.
func (r *PatchRunner[S]) apply(ctx context.Context, step PatchStep[S], state S) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Wrapf(ErrPatchPanicked, "%v", p)
		}
	}()
	return step.Apply(ctx, state)
}
