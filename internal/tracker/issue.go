package tracker

import (
	"context"
	"errors"
	"slices"
)

// ErrNotFound is returned (wrapped) by Client.GetIssue when the tracker has no issue
// at the requested URL.
var ErrNotFound = errors.New("issue not found")

// Type tags which kind of tracker an issue comes from.
type Type string

const (
	TypeGitHub   Type = "github"
	TypeJira     Type = "jira"
	TypeBugzilla Type = "bugzilla"
)

func (t Type) Valid() bool {
	switch t {
	case TypeGitHub, TypeJira, TypeBugzilla:
		return true
	default:
		return false
	}
}

// Stream identifies the release stream a payload is evaluated for (e.g. "eap-8.0.x").
type Stream string

// Client fetches issues from a tracker.
type Client interface {
	GetIssue(ctx context.Context, url string) (*Issue, error)
}

// Issue is a tracked work item. Values returned by a Client are shared and must be
// treated as read-only.
type Issue struct {
	URL       string   `json:"url"`
	Number    int      `json:"number"`
	Title     string   `json:"title"`
	State     string   `json:"state"`
	Labels    []string `json:"labels,omitempty"`
	Milestone string   `json:"milestone,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// DependencyURLs returns the issue's dependency URLs in declaration order.
func (i *Issue) DependencyURLs() []string {
	if i == nil {
		return nil
	}
	return slices.Clone(i.DependsOn)
}

// HasLabel reports whether the issue carries label (exact match).
func (i *Issue) HasLabel(label string) bool {
	return i != nil && slices.Contains(i.Labels, label)
}
