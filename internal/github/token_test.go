package github

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeGHStub installs a fake gh binary printing script output and returns its dir.
func writeGHStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test uses a shell script gh stub")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gh"), []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return dir
}

func TestResolveAuthToken(t *testing.T) {
	t.Run("explicit token wins", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveAuthToken(context.Background(), " explicit ", "")
		require.NoError(t, err)
		assert.Equal(t, "explicit", tok)
		assert.Equal(t, AuthTokenSourceExplicit, src)
	})

	t.Run("env token used", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "env-token")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveAuthToken(context.Background(), "", "")
		require.NoError(t, err)
		assert.Equal(t, "env-token", tok)
		assert.Equal(t, AuthTokenSourceEnv, src)
	})

	t.Run("gh token used when env empty", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", writeGHStub(t, "echo gh-token"))

		tok, src, err := ResolveAuthToken(context.Background(), "", "")
		require.NoError(t, err)
		assert.Equal(t, "gh-token", tok)
		assert.Equal(t, AuthTokenSourceGitHubCL, src)
	})

	t.Run("gh receives the requested host", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", writeGHStub(t, `echo "tok-$4"`))

		tok, _, err := ResolveAuthToken(context.Background(), "", "github.example.com")
		require.NoError(t, err)
		assert.Equal(t, "tok-github.example.com", tok)
	})

	t.Run("empty when neither env nor gh", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", t.TempDir())

		tok, src, err := ResolveAuthToken(context.Background(), "", "")
		require.NoError(t, err)
		assert.Empty(t, tok)
		assert.Empty(t, src)
	})

	t.Run("gh failure means no token", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", writeGHStub(t, "exit 1"))

		tok, _, err := ResolveAuthToken(context.Background(), "", "")
		require.NoError(t, err)
		assert.Empty(t, tok)
	})

	t.Run("gh invalid token output returns error", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", writeGHStub(t, `printf 'line1\nline2\n'`))

		_, _, err := ResolveAuthToken(context.Background(), "", "")
		require.Error(t, err)
	})

	t.Run("context canceled propagates error when using gh", func(t *testing.T) {
		t.Setenv("GITHUB_TOKEN", "")
		t.Setenv("PATH", writeGHStub(t, "echo gh-token"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := ResolveAuthToken(ctx, "", "")
		require.ErrorIs(t, err, context.Canceled)
	})
}
