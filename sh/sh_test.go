package sh_test

import (
	"context"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruuda/miniserver/sh"
)

func TestRunner_Run(t *testing.T) {
	t.Parallel()
	log := slogt.New(t)
	err := sh.New(sh.WithLogger{log}).Run(context.Background(), "echo")
	require.NoError(t, err)
}

func TestRunner_Run_error(t *testing.T) {
	t.Parallel()
	log := slogt.New(t)
	err := sh.New(sh.WithLogger{log}).Run(context.Background(), "bash", "-c", "false")
	require.EqualError(t, err, "running \"bash -c false\" failed with exit code 1")
}

func TestRunner_Run_runerror(t *testing.T) {
	t.Parallel()
	log := slogt.New(t)
	err := sh.New(sh.WithLogger{log}).Run(context.Background(), "xxxxxxxxxxx")
	require.EqualError(t, err, "failed to run \"xxxxxxxxxxx \": exec: \"xxxxxxxxxxx\": executable file not found in $PATH")
}

func TestRunner_Output(t *testing.T) {
	t.Parallel()
	log := slogt.New(t)
	out, err := sh.New(sh.WithLogger{log}).Output(context.Background(), "echo", "hello world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
}

func TestRunner_Start_terminate(t *testing.T) {
	t.Parallel()
	log := slogt.New(t)
	p, err := sh.New(sh.WithLogger{log}).Start(context.Background(), "sleep", "30")
	require.NoError(t, err)

	require.NoError(t, p.Terminate(5*time.Second))
	// The wait error reflects the signal, Terminate already accounted for it.
	require.Error(t, p.Wait())
}

func TestRunner_Start_wait(t *testing.T) {
	t.Parallel()
	log := slogt.New(t)
	p, err := sh.New(sh.WithLogger{log}).Start(context.Background(), "true")
	require.NoError(t, err)
	require.NoError(t, p.Wait())

	// Terminating an exited process is a no-op.
	require.NoError(t, p.Terminate(time.Second))
}
