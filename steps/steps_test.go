package steps

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruuda/miniserver/internal/term"
)

func init() {
	term.NoColor = true
}

func TestTracker_Serial_runsOnce(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	var calls int32
	step := Fn("count", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	ctx := context.Background()
	require.NoError(t, tr.Serial(ctx, ".", step))
	require.NoError(t, tr.Serial(ctx, ".", step))
	assert.Equal(t, int32(1), calls)
}

func TestTracker_Serial_stopsOnError(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	boom := errors.New("boom")
	var ran bool
	err := tr.Serial(context.Background(), ".",
		Fn("fails", func(context.Context) error { return boom }),
		Fn("never", func(context.Context) error {
			ran = true
			return nil
		}),
	)
	require.ErrorIs(t, err, boom)
	assert.False(t, ran)
}

func TestTracker_Parallel_joinsErrors(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	err := tr.Parallel(context.Background(), ".",
		Fn("a", func(context.Context) error { return errors.New("a failed") }),
		Fn("b", func(context.Context) error { return nil }),
		Fn("c", func(context.Context) error { return errors.New("c failed") }),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.Contains(t, err.Error(), "c failed")
}

func TestTracker_Report(t *testing.T) {
	t.Parallel()
	tr := NewTracker()

	err := tr.Serial(context.Background(), ".",
		Fn("deploy", func(ctx context.Context) error {
			return tr.Serial(ctx, "deploy",
				Fn("build", func(context.Context) error { return nil }),
				Fn("copy", func(context.Context) error { return errors.New("disk full") }),
			)
		}),
	)
	require.Error(t, err)

	report := tr.Report()
	assert.Contains(t, report, "Miniserver Report:")
	assert.Contains(t, report, "[OK] build")
	assert.Contains(t, report, "[ERR] copy")
	assert.Contains(t, report, "disk full")
	assert.Contains(t, report, "[ERR] deploy")
}
