package gitops

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/EPdacoder05/TF2S3-migration/internal/run"
)

// PRInfo is the subset of pull request state the pipeline cares about.
type PRInfo struct {
	Number int
	URL    string
	State  string
}

// PRClient looks up pull requests. The concrete implementation talks to the
// GitHub API; tests substitute a fake.
type PRClient interface {
	// FindByBranch returns the open pull request whose head is branch, or nil
	// when none exists.
	FindByBranch(ctx context.Context, owner, repo, branch string) (*PRInfo, error)
}

type githubPRClient struct {
	client *github.Client
}

// NewPRClient builds a PRClient authenticated with token. The token comes
// from GITHUB_TOKEN or, failing that, from gh's own credential store.
func NewPRClient(token string) PRClient {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &githubPRClient{client: github.NewClient(tc)}
}

func (c *githubPRClient) FindByBranch(ctx context.Context, owner, repo, branch string) (*PRInfo, error) {
	prs, _, err := c.client.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{
		State: "open",
		Head:  fmt.Sprintf("%s:%s", owner, branch),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests for %s/%s: %w", owner, repo, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}
	pr := prs[0]
	return &PRInfo{
		Number: pr.GetNumber(),
		URL:    pr.GetHTMLURL(),
		State:  pr.GetState(),
	}, nil
}

// ResolveToken finds a GitHub API token: the GITHUB_TOKEN environment
// variable wins, then whatever gh auth token prints.
func ResolveToken(ctx context.Context, runner *run.Runner) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}

	token, err := runner.Output(ctx, run.Command{
		Argv:    []string{"gh", "auth", "token"},
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return "", fmt.Errorf("no GitHub token available: set GITHUB_TOKEN or run gh auth login: %w", err)
	}
	return token, nil
}
