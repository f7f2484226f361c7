package service

import (
	"context"

	"github.com/coderkeshav-yt/naturalpuff/internal/util"

	"go.uber.org/zap"
)

// StepPolicy decides what a failing saga step does to the rest of the run
type StepPolicy int

const (
	// PolicyAbort compensates completed steps and fails the saga
	PolicyAbort StepPolicy = iota
	// PolicyHalt skips the remaining steps of the same group; the saga still
	// succeeds. An ungrouped Halt step halts nothing after it.
	PolicyHalt
	// PolicyContinue logs the failure and moves on
	PolicyContinue
)

func (p StepPolicy) String() string {
	switch p {
	case PolicyAbort:
		return "abort"
	case PolicyHalt:
		return "halt"
	case PolicyContinue:
		return "continue"
	default:
		return "unknown"
	}
}

// SagaStep is one action of a saga. Compensate is optional.
type SagaStep struct {
	Name       string
	Policy     StepPolicy
	Group      string
	Action     func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// StepFailure records a failed step that did not abort the saga
type StepFailure struct {
	Step   string
	Policy StepPolicy
	Err    error
}

// SagaResult is the outcome of one saga run
type SagaResult struct {
	Completed []string
	Skipped   []string
	Failures  []StepFailure
	// Err is set when an abort step failed
	Err error
}

// Failed reports whether step failed without aborting
func (r *SagaResult) Failed(step string) bool {
	for _, f := range r.Failures {
		if f.Step == step {
			return true
		}
	}
	return false
}

// Degraded reports whether any step failed without aborting
func (r *SagaResult) Degraded() bool {
	return len(r.Failures) > 0
}

// Saga runs steps in order with per-step failure policies
type Saga struct {
	name   string
	steps  []SagaStep
	logger *zap.Logger
}

// NewSaga creates an empty saga
func NewSaga(name string, logger *zap.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

// AddStep appends a step
func (s *Saga) AddStep(step SagaStep) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs the steps. An abort failure compensates the completed steps
// in reverse order before returning.
func (s *Saga) Execute(ctx context.Context) *SagaResult {
	ctx, span := util.StartSpan(ctx, "Saga."+s.name)
	defer span.End()

	result := &SagaResult{}
	halted := make(map[string]bool)
	var done []SagaStep

	for _, step := range s.steps {
		if step.Group != "" && halted[step.Group] {
			result.Skipped = append(result.Skipped, step.Name)
			continue
		}

		err := step.Action(ctx)
		if err == nil {
			done = append(done, step)
			result.Completed = append(result.Completed, step.Name)
			continue
		}

		util.SagaStepFailures.WithLabelValues(step.Name, step.Policy.String()).Inc()

		switch step.Policy {
		case PolicyAbort:
			s.logger.Error("Saga step failed, compensating",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err))
			s.compensate(ctx, done)
			result.Err = util.FailSpan(span, &PlacementError{Step: step.Name, Err: err})
			return result
		case PolicyHalt:
			s.logger.Warn("Saga step failed, halting group",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.String("group", step.Group),
				zap.Error(err))
			if step.Group != "" {
				halted[step.Group] = true
			}
		default:
			s.logger.Warn("Saga step failed, continuing",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err))
		}
		result.Failures = append(result.Failures, StepFailure{Step: step.Name, Policy: step.Policy, Err: err})
	}

	return result
}

func (s *Saga) compensate(ctx context.Context, done []SagaStep) {
	// Compensation must run even when the caller has gone away
	ctx = context.WithoutCancel(ctx)
	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.logger.Error("Compensation failed",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err))
		}
	}
}
