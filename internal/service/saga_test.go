package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func step(name string, policy StepPolicy, group string, err error, trace *[]string) SagaStep {
	return SagaStep{
		Name:   name,
		Policy: policy,
		Group:  group,
		Action: func(context.Context) error {
			*trace = append(*trace, name)
			return err
		},
		Compensate: func(context.Context) error {
			*trace = append(*trace, "undo_"+name)
			return nil
		},
	}
}

func TestSagaAbortCompensatesInReverse(t *testing.T) {
	var trace []string
	res := NewSaga("test", zap.NewNop()).
		AddStep(step("a", PolicyAbort, "", nil, &trace)).
		AddStep(step("b", PolicyAbort, "", nil, &trace)).
		AddStep(step("c", PolicyAbort, "", errBoom, &trace)).
		AddStep(step("d", PolicyAbort, "", nil, &trace)).
		Execute(context.Background())

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, errBoom)
	assert.Equal(t, "c", failedStep(res.Err))
	assert.Equal(t, []string{"a", "b", "c", "undo_b", "undo_a"}, trace)
}

func TestSagaHaltSkipsOnlyItsGroup(t *testing.T) {
	var trace []string
	res := NewSaga("test", zap.NewNop()).
		AddStep(step("a", PolicyAbort, "", nil, &trace)).
		AddStep(step("pay1", PolicyHalt, "pay", errBoom, &trace)).
		AddStep(step("pay2", PolicyContinue, "pay", nil, &trace)).
		AddStep(step("publish", PolicyContinue, "", nil, &trace)).
		Execute(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"a", "pay1", "publish"}, trace)
	assert.Equal(t, []string{"pay2"}, res.Skipped)
	assert.True(t, res.Failed("pay1"))
	assert.True(t, res.Degraded())
}

func TestSagaContinue(t *testing.T) {
	var trace []string
	res := NewSaga("test", zap.NewNop()).
		AddStep(step("a", PolicyContinue, "", errBoom, &trace)).
		AddStep(step("b", PolicyAbort, "", nil, &trace)).
		Execute(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"a", "b"}, trace)
	assert.Equal(t, []string{"b"}, res.Completed)
	assert.False(t, res.Failed("b"))
}

func TestSagaUngroupedHaltDoesNotSkipLaterSteps(t *testing.T) {
	var trace []string
	res := NewSaga("test", zap.NewNop()).
		AddStep(step("a", PolicyHalt, "", errBoom, &trace)).
		AddStep(step("b", PolicyAbort, "", nil, &trace)).
		AddStep(step("c", PolicyContinue, "", nil, &trace)).
		Execute(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"a", "b", "c"}, trace)
	assert.Empty(t, res.Skipped)
	assert.True(t, res.Failed("a"))
}
