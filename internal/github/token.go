package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

type AuthTokenSource string

const (
	AuthTokenSourceExplicit AuthTokenSource = "explicit"
	AuthTokenSourceEnv      AuthTokenSource = "env:GITHUB_TOKEN"
	AuthTokenSourceGitHubCL AuthTokenSource = "gh"
)

// ghTokenTimeout bounds `gh auth token` so a broken credential helper cannot hang a run.
const ghTokenTimeout = 5 * time.Second

type tokenSource struct {
	name   AuthTokenSource
	lookup func(ctx context.Context) (string, error)
}

// ResolveAuthToken resolves a GitHub access token, trying in order:
//  1. provided (if non-empty)
//  2. GITHUB_TOKEN env var
//  3. GitHub CLI: `gh auth token -h <host>`
//
// host defaults to github.com. An empty token with a nil error means no source had one.
func ResolveAuthToken(ctx context.Context, provided, host string) (string, AuthTokenSource, error) {
	if host == "" {
		host = "github.com"
	}
	sources := []tokenSource{
		{AuthTokenSourceExplicit, func(context.Context) (string, error) { return provided, nil }},
		{AuthTokenSourceEnv, func(context.Context) (string, error) { return os.Getenv("GITHUB_TOKEN"), nil }},
		{AuthTokenSourceGitHubCL, func(ctx context.Context) (string, error) { return tokenFromGitHubCLI(ctx, host) }},
	}

	for _, src := range sources {
		tok, err := src.lookup(ctx)
		if err != nil {
			return "", "", err
		}
		if tok = strings.TrimSpace(tok); tok != "" {
			return tok, src.name, nil
		}
	}
	return "", "", nil
}

func tokenFromGitHubCLI(ctx context.Context, host string) (string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", nil
	}

	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, ghTokenTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", host)
	env := make([]string, 0, len(os.Environ())+1)
	for _, entry := range os.Environ() {
		if !strings.HasPrefix(entry, "GH_PAGER=") {
			env = append(env, entry)
		}
	}
	cmd.Env = append(env, "GH_PAGER=cat")

	out, err := cmd.Output()
	if err != nil {
		if cmdCtx.Err() != nil {
			return "", cmdCtx.Err()
		}
		// Not logged in (or any other gh failure) means no token from this source.
		return "", nil
	}

	tok := strings.TrimSpace(string(out))
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", errors.New("invalid token returned by gh: contains whitespace")
	}
	return tok, nil
}
