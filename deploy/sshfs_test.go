package deploy

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMounter_Mount(t *testing.T) {
	t.Parallel()

	var proc procMock
	proc.On("Terminate", mock.Anything).Return(nil)

	var startedHost, startedDir string
	start := func(ctx context.Context, host, stateDir, mountpoint string) (Proc, error) {
		startedHost, startedDir = host, stateDir
		return &proc, nil
	}
	probe := func(ctx context.Context, path string) (string, error) {
		return "fuseblk", nil
	}

	m := NewMounter(nil,
		WithTempRoot(t.TempDir()),
		WithStartFunc(start),
		WithProbeFunc(probe),
	)

	mnt, err := m.Mount(context.Background(), "miniserver.example.org")
	require.NoError(t, err)
	assert.Equal(t, "miniserver.example.org", startedHost)
	assert.Equal(t, "/var/lib/miniserver", startedDir)
	assert.True(t, strings.Contains(mnt.Path, "miniserver-"))

	_, err = os.Stat(mnt.Path)
	require.NoError(t, err)

	require.NoError(t, mnt.Close())
	_, err = os.Stat(mnt.Path)
	assert.True(t, os.IsNotExist(err))
	proc.AssertExpectations(t)
}

func TestMounter_Mount_waitsForMount(t *testing.T) {
	t.Parallel()

	var proc procMock

	var probes int
	probe := func(ctx context.Context, path string) (string, error) {
		probes++
		if probes < 3 {
			return "tmpfs", nil
		}
		return "fuseblk", nil
	}

	m := NewMounter(nil,
		WithTempRoot(t.TempDir()),
		WithInterval(time.Millisecond),
		WithStartFunc(func(context.Context, string, string, string) (Proc, error) {
			return &proc, nil
		}),
		WithProbeFunc(probe),
	)

	mnt, err := m.Mount(context.Background(), "miniserver.example.org")
	require.NoError(t, err)
	assert.Equal(t, 3, probes)
	proc.On("Terminate", mock.Anything).Return(nil)
	require.NoError(t, mnt.Close())
}

func TestMounter_Mount_timeout(t *testing.T) {
	t.Parallel()

	var proc procMock
	proc.On("Terminate", mock.Anything).Return(nil)

	m := NewMounter(nil,
		WithTempRoot(t.TempDir()),
		WithInterval(time.Millisecond),
		WithTimeout(5*time.Millisecond),
		WithStartFunc(func(context.Context, string, string, string) (Proc, error) {
			return &proc, nil
		}),
		WithProbeFunc(func(context.Context, string) (string, error) {
			return "tmpfs", nil
		}),
	)

	_, err := m.Mount(context.Background(), "miniserver.example.org")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not mount")
	proc.AssertExpectations(t)
}
