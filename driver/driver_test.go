package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/hey/driver"
	"github.com/wudi/hey/sample"
	"github.com/wudi/hey/values"
)

func newSampleDriver(t *testing.T) (*driver.Driver, *driver.StagedState) {
	t.Helper()
	d := driver.New()
	require.NoError(t, d.Deploy(sample.BuildModule()))
	return d, driver.NewStagedState()
}

func TestExecutePublishThenValueReportsFalse(t *testing.T) {
	d, state := newSampleDriver(t)
	addr := sample.ModuleAddress()

	publishResult, err := d.Execute(state, driver.Input{
		Module:       sample.CounterModuleID,
		FunctionName: "publish",
		Args:         []*values.Value{values.NewSigner(addr)},
	})
	require.NoError(t, err)
	require.NotNil(t, publishResult.NewState)
	assert.False(t, state.Exists(addr, 0), "Execute must not mutate the caller's own StagedState")
	assert.True(t, publishResult.NewState.Exists(addr, 0), "publish should move a Counter into the returned post-state")

	result, err := d.Execute(publishResult.NewState, driver.Input{
		Module:       sample.CounterModuleID,
		FunctionName: "value",
		Args:         []*values.Value{values.NewAddress(addr)},
	})
	require.NoError(t, err)
	require.Len(t, result.Output, 1)
	assert.Equal(t, values.KindBool, result.Output[0].Value.Kind)
	assert.False(t, result.Output[0].Value.Bool(), "freshly published counter is 0, so value() should report false")
	assert.False(t, result.Reverted)
}

func TestExecutePublishTwiceReverts(t *testing.T) {
	d, state := newSampleDriver(t)
	addr := sample.ModuleAddress()
	input := driver.Input{
		Module:       sample.CounterModuleID,
		FunctionName: "publish",
		Args:         []*values.Value{values.NewSigner(addr)},
	}

	first, err := d.Execute(state, input)
	require.NoError(t, err)

	result, err := d.Execute(first.NewState, input)
	require.NoError(t, err, "a Move-level revert is reported via ExecutionResult, not a Go error")
	assert.True(t, result.Reverted, "publishing the same resource twice must revert")
}

func TestExecuteRecordsCoverageAndStateChanged(t *testing.T) {
	d, state := newSampleDriver(t)
	addr := sample.ModuleAddress()

	assert.False(t, d.Feedback.StateChanged())

	publishResult, err := d.Execute(state, driver.Input{
		Module:       sample.CounterModuleID,
		FunctionName: "publish",
		Args:         []*values.Value{values.NewSigner(addr)},
	})
	require.NoError(t, err)
	assert.True(t, d.Feedback.StateChanged(), "publish's MoveTo should flip the state-changed flag")

	jmp := d.Feedback.GetJmp()
	touched := 0
	for _, c := range jmp {
		if c != 0 {
			touched++
		}
	}
	assert.Zero(t, touched, "publish has no branches, so it shouldn't touch the coverage map")

	_, err = d.Execute(publishResult.NewState, driver.Input{
		Module:       sample.CounterModuleID,
		FunctionName: "value",
		Args:         []*values.Value{values.NewAddress(addr)},
	})
	require.NoError(t, err)

	jmp = d.Feedback.GetJmp()
	touched = 0
	for _, c := range jmp {
		if c != 0 {
			touched++
		}
	}
	assert.NotZero(t, touched, "value()'s BrTrue should leave a coverage mark")
}

func TestExecutePopulatesStructAbilitiesMetadata(t *testing.T) {
	d, state := newSampleDriver(t)
	addr := sample.ModuleAddress()

	// value() only leaves a bool to record once a Counter is published;
	// on an empty state its borrow_global reverts with nothing on the stack.
	publishResult, err := d.Execute(state, driver.Input{
		Module:       sample.CounterModuleID,
		FunctionName: "publish",
		Args:         []*values.Value{values.NewSigner(addr)},
	})
	require.NoError(t, err)

	result, err := d.Execute(publishResult.NewState, driver.Input{
		Module:       sample.CounterModuleID,
		FunctionName: "value",
		Args:         []*values.Value{values.NewAddress(addr)},
	})
	require.NoError(t, err)

	require.True(t, driver.HasMetadata[driver.StructAbilities](result.NewState.Metadata))
	abilities := driver.GetOrInsertMetadata(result.NewState.Metadata, func() driver.StructAbilities { return driver.NewStructAbilities() })
	a, ok := abilities.GetAbility(values.Bool())
	require.True(t, ok, "the bool return type's abilities should have been recorded")
	assert.True(t, a.HasCopy())
}

func TestExecuteUnknownFunctionIsFatal(t *testing.T) {
	d, state := newSampleDriver(t)

	defer func() {
		r := recover()
		require.NotNil(t, r, "resolving an unknown function should panic, not return an error")
		fatal, ok := r.(*driver.FatalError)
		require.True(t, ok, "expected a *driver.FatalError, got %T", r)
		assert.Equal(t, "resolve", fatal.Class)
	}()

	_, _ = d.Execute(state, driver.Input{
		Module:       sample.CounterModuleID,
		FunctionName: "nope",
	})
}
