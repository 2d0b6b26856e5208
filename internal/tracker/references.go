package tracker

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const defaultHost = "github.com"

// IssueRef locates one issue on a GitHub host.
type IssueRef struct {
	Host   string
	Owner  string
	Repo   string
	Number int
}

// String returns the canonical issue URL. Pull requests are addressed through the
// issues path, which GitHub serves for both.
func (r IssueRef) String() string {
	host := r.Host
	if host == "" {
		host = defaultHost
	}
	return fmt.Sprintf("https://%s/%s/%s/issues/%d", host, r.Owner, r.Repo, r.Number)
}

var shortRefRe = regexp.MustCompile(`^([\w.-]+)/([\w.-]+)#(\d+)$`)

// ParseIssueURL accepts
//
//	https://<host>/<owner>/<repo>/issues/<n>
//	https://<host>/<owner>/<repo>/pull/<n>
//	<owner>/<repo>#<n>
func ParseIssueURL(raw string) (IssueRef, error) {
	raw = strings.TrimSpace(raw)
	if m := shortRefRe.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[3])
		if err != nil || n <= 0 {
			return IssueRef{}, fmt.Errorf("invalid issue reference %q", raw)
		}
		return IssueRef{Host: defaultHost, Owner: m[1], Repo: m[2], Number: n}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return IssueRef{}, fmt.Errorf("invalid issue URL %q", raw)
	}
	parts := strings.FieldsFunc(strings.Trim(u.Path, "/"), func(r rune) bool { return r == '/' })
	if len(parts) != 4 || (parts[2] != "issues" && parts[2] != "pull") {
		return IssueRef{}, fmt.Errorf("invalid issue URL %q: expected /<owner>/<repo>/issues/<number>", raw)
	}
	n, err := strconv.Atoi(parts[3])
	if err != nil || n <= 0 {
		return IssueRef{}, fmt.Errorf("invalid issue URL %q: bad issue number", raw)
	}

	host := strings.ToLower(u.Host)
	if host == "www.github.com" {
		host = defaultHost
	}
	return IssueRef{Host: host, Owner: parts[0], Repo: parts[1], Number: n}, nil
}

// refRe matches, in order of preference at each position: a full issue/pull URL, an
// owner/repo#n reference, or a bare #n reference.
var refRe = regexp.MustCompile(`https?://([^/\s]+)/([\w.-]+)/([\w.-]+)/(?:issues|pull)/(\d+)|([\w.-]+)/([\w.-]+)#(\d+)|#(\d+)\b`)

// ExtractDependencyURLs collects the issues a body declares as dependencies. Only
// lines starting with "Depends on" or "Blocked by" and task-list items ("- [ ] ...")
// are considered. Bare #n references resolve against base. The result is canonical,
// de-duplicated and in order of appearance.
func ExtractDependencyURLs(body string, base IssueRef) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(ref IssueRef) {
		if ref.Number <= 0 {
			return
		}
		s := ref.String()
		if s == base.String() {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, line := range strings.Split(body, "\n") {
		if !isDependencyLine(line) {
			continue
		}
		for _, m := range refRe.FindAllStringSubmatch(line, -1) {
			switch {
			case m[1] != "":
				n, _ := strconv.Atoi(m[4])
				host := strings.ToLower(m[1])
				if host == "www.github.com" {
					host = defaultHost
				}
				add(IssueRef{Host: host, Owner: m[2], Repo: m[3], Number: n})
			case m[5] != "":
				n, _ := strconv.Atoi(m[7])
				add(IssueRef{Host: base.Host, Owner: m[5], Repo: m[6], Number: n})
			case m[8] != "":
				n, _ := strconv.Atoi(m[8])
				add(IssueRef{Host: base.Host, Owner: base.Owner, Repo: base.Repo, Number: n})
			}
		}
	}
	return out
}

func isDependencyLine(line string) bool {
	l := strings.ToLower(strings.TrimSpace(line))
	for _, prefix := range []string{"depends on", "blocked by", "- [ ]", "- [x]", "* [ ]", "* [x]"} {
		if strings.HasPrefix(l, prefix) {
			return true
		}
	}
	return false
}
