package nix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGitHub_LatestRevision(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/NixOS/nixpkgs-channels/git/refs/heads/nixos-unstable", r.URL.Path)
		_, _ = w.Write([]byte(`{"object": {"sha": "deadbeef"}}`))
	}))
	defer srv.Close()

	gh := &GitHub{BaseURL: srv.URL}
	sha, err := gh.LatestRevision(context.Background(), "nixos-unstable")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", sha)
}

func TestGitHub_LatestRevision_retries(t *testing.T) {
	t.Parallel()

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"object": {"sha": "deadbeef"}}`))
	}))
	defer srv.Close()

	gh := &GitHub{
		BaseURL: srv.URL,
		Retry:   retrier.New(retrier.ConstantBackoff(3, time.Millisecond), nil),
	}
	sha, err := gh.LatestRevision(context.Background(), "nixos-unstable")
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", sha)
	assert.Equal(t, 2, calls)
}

func TestGitHub_LatestRevision_error(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gh := &GitHub{
		BaseURL: srv.URL,
		Retry:   retrier.New(retrier.ConstantBackoff(1, time.Millisecond), nil),
	}
	_, err := gh.LatestRevision(context.Background(), "no-such-channel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-channel")
}

func TestPrefetch(t *testing.T) {
	t.Parallel()

	url := NixpkgsTarballURL("deadbeef")
	var run runnerMock
	run.On("Output", mock.Anything, "nix-prefetch-url",
		[]string{"--unpack", "--type", "sha256", url}).
		Return("0f00f00f", nil)

	sha, err := Prefetch(context.Background(), &run, url)
	require.NoError(t, err)
	assert.Equal(t, "0f00f00f", sha)
}

func TestFetchTarballExpr(t *testing.T) {
	t.Parallel()

	expected := `fetchTarball {
  url = "https://github.com/NixOS/nixpkgs/archive/deadbeef.tar.gz";
  sha256 = "0f00f00f";
}
`
	assert.Equal(t, expected, FetchTarballExpr("deadbeef", "0f00f00f"))
}
