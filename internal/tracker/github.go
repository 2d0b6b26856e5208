package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"sync"

	"github.com/google/go-github/v81/github"
	"golang.org/x/sync/singleflight"

	gh "payloadmedic/internal/github"
	"payloadmedic/internal/logging"
)

// GitHub is a Client backed by the GitHub issues API.
//
// Successful lookups are cached for the lifetime of the value and concurrent lookups
// of the same issue share one request.
type GitHub struct {
	client    *gh.Client
	budget    *Budget
	log       *logging.Logger
	subIssues bool

	cache sync.Map // canonical URL -> *Issue
	group singleflight.Group
}

type GitHubOption func(*GitHub)

func WithLogger(log *logging.Logger) GitHubOption {
	return func(g *GitHub) {
		if log != nil {
			g.log = log.Named("tracker")
		}
	}
}

// WithSubIssues makes GetTrackingIssue merge GitHub sub-issues into the dependency list.
func WithSubIssues(enabled bool) GitHubOption {
	return func(g *GitHub) { g.subIssues = enabled }
}

func WithBudget(b *Budget) GitHubOption {
	return func(g *GitHub) {
		if b != nil {
			g.budget = b
		}
	}
}

func NewGitHub(client *gh.Client, opts ...GitHubOption) (*GitHub, error) {
	if client == nil || client.Client == nil {
		return nil, errors.New("tracker: nil GitHub client")
	}
	g := &GitHub{
		client:    client,
		budget:    NewBudget(),
		log:       logging.Nop(),
		subIssues: true,
	}
	for _, apply := range opts {
		if apply != nil {
			apply(g)
		}
	}
	return g, nil
}

func (g *GitHub) GetIssue(ctx context.Context, rawURL string) (*Issue, error) {
	ref, err := ParseIssueURL(rawURL)
	if err != nil {
		// No tracker can locate an issue behind an unparseable URL.
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	key := ref.String()

	if v, ok := g.cache.Load(key); ok {
		return v.(*Issue), nil
	}

	v, err, _ := g.group.Do(key, func() (any, error) {
		return g.fetch(ctx, ref)
	})
	if err != nil {
		return nil, err
	}
	issue := v.(*Issue)
	g.cache.Store(key, issue)
	return issue, nil
}

// GetTrackingIssue fetches a payload tracking issue. With sub-issues enabled, the
// issue's GitHub sub-issues are appended to the dependencies found in its body; a
// failing sub-issue query degrades to body references only.
func (g *GitHub) GetTrackingIssue(ctx context.Context, rawURL string) (*Issue, error) {
	issue, err := g.GetIssue(ctx, rawURL)
	if err != nil || !g.subIssues {
		return issue, err
	}

	ref, _ := ParseIssueURL(issue.URL)
	subs, err := g.subIssueURLs(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.log.Warnf("sub-issues of %s unavailable, using body references only: %v", issue.URL, err)
		return issue, nil
	}

	merged := *issue
	merged.DependsOn = slices.Clone(issue.DependsOn)
	for _, s := range subs {
		if !slices.Contains(merged.DependsOn, s) {
			merged.DependsOn = append(merged.DependsOn, s)
		}
	}
	return &merged, nil
}

func (g *GitHub) fetch(ctx context.Context, ref IssueRef) (*Issue, error) {
	if err := g.budget.Acquire(ctx); err != nil {
		return nil, err
	}
	is, resp, err := g.client.Client.Issues.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	g.budget.Update(resp)
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("get issue %s: %w", ref, err)
	}
	return issueFromGitHub(ref, is), nil
}

func isMissing(err error) bool {
	var er *github.ErrorResponse
	if !errors.As(err, &er) || er.Response == nil {
		return false
	}
	switch er.Response.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return true
	default:
		return false
	}
}

func issueFromGitHub(ref IssueRef, is *github.Issue) *Issue {
	issue := &Issue{
		URL:       ref.String(),
		Number:    is.GetNumber(),
		Title:     is.GetTitle(),
		State:     is.GetState(),
		Milestone: is.GetMilestone().GetTitle(),
		DependsOn: ExtractDependencyURLs(is.GetBody(), ref),
	}
	if issue.Number == 0 {
		issue.Number = ref.Number
	}
	for _, l := range is.Labels {
		if name := l.GetName(); name != "" {
			issue.Labels = append(issue.Labels, name)
		}
	}
	for _, a := range is.Assignees {
		if login := a.GetLogin(); login != "" {
			issue.Assignees = append(issue.Assignees, login)
		}
	}
	sort.Strings(issue.Assignees)
	return issue
}

const subIssuesQuery = `query($owner: String!, $repo: String!, $number: Int!) {
  repository(owner: $owner, name: $repo) {
    issue(number: $number) {
      subIssues(first: 100) { nodes { url } }
    }
  }
}`

type subIssuesData struct {
	Repository *struct {
		Issue *struct {
			SubIssues struct {
				Nodes []struct {
					URL string `json:"url"`
				} `json:"nodes"`
			} `json:"subIssues"`
		} `json:"issue"`
	} `json:"repository"`
}

func (g *GitHub) subIssueURLs(ctx context.Context, ref IssueRef) ([]string, error) {
	if err := g.budget.Acquire(ctx); err != nil {
		return nil, err
	}
	data, _, err := gh.DoGraphQL[subIssuesData](ctx, g.client, gh.GraphQLRequest{
		Query: subIssuesQuery,
		Variables: map[string]any{
			"owner":  ref.Owner,
			"repo":   ref.Repo,
			"number": ref.Number,
		},
	})
	if err != nil {
		return nil, err
	}
	if data.Repository == nil || data.Repository.Issue == nil {
		return nil, nil
	}

	var out []string
	for _, n := range data.Repository.Issue.SubIssues.Nodes {
		sub, err := ParseIssueURL(n.URL)
		if err != nil {
			g.log.Warnf("ignoring sub-issue with unexpected URL %q", n.URL)
			continue
		}
		out = append(out, sub.String())
	}
	return out, nil
}
