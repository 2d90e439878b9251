package nix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eapache/go-resiliency/retrier"
)

// PinnedFile is the Nix expression that pins the Nixpkgs revision this
// project builds against.
const PinnedFile = "nixpkgs-pinned.nix"

const githubAPI = "https://api.github.com"

// GitHub resolves Nixpkgs channel heads through the GitHub API.
type GitHub struct {
	Client  *http.Client
	BaseURL string
	Retry   *retrier.Retrier
}

func (g *GitHub) Default() {
	if g.Client == nil {
		g.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if g.BaseURL == "" {
		g.BaseURL = githubAPI
	}
	if g.Retry == nil {
		g.Retry = retrier.New(retrier.ConstantBackoff(3, 2*time.Second), nil)
	}
}

// LatestRevision returns the current HEAD commit hash of the given Nixpkgs
// channel.
func (g *GitHub) LatestRevision(ctx context.Context, channel string) (string, error) {
	g.Default()

	url := g.BaseURL + "/repos/NixOS/nixpkgs-channels/git/refs/heads/" + channel

	var sha string
	err := g.Retry.RunCtx(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := g.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s for %s", resp.Status, url)
		}

		var body struct {
			Object struct {
				SHA string `json:"sha"`
			} `json:"object"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return fmt.Errorf("decoding ref: %w", err)
		}
		if body.Object.SHA == "" {
			return fmt.Errorf("no commit hash in ref for channel %s", channel)
		}
		sha = body.Object.SHA
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("resolving channel %s: %w", channel, err)
	}
	return sha, nil
}

// Prefetch runs nix-prefetch-url with unpack and returns the sha256.
func Prefetch(ctx context.Context, run Runner, url string) (string, error) {
	sha, err := run.Output(ctx, "nix-prefetch-url", "--unpack", "--type", "sha256", url)
	if err != nil {
		return "", fmt.Errorf("prefetching %s: %w", url, err)
	}
	return sha, nil
}

// NixpkgsTarballURL returns the download url for a Nixpkgs commit archive.
func NixpkgsTarballURL(commitHash string) string {
	return fmt.Sprintf("https://github.com/NixOS/nixpkgs/archive/%s.tar.gz", commitHash)
}

// FetchTarballExpr returns a fetchTarball expression for a given Nixpkgs
// commit, as written to the pinned file.
func FetchTarballExpr(commitHash, sha256 string) string {
	return fmt.Sprintf(
		"fetchTarball {\n"+
			"  url = %q;\n"+
			"  sha256 = %q;\n"+
			"}\n",
		NixpkgsTarballURL(commitHash), sha256,
	)
}
