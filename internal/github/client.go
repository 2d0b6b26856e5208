package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"

	"payloadmedic/internal/logging"
)

type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	log     *logging.Logger
	baseURL string
	timeout time.Duration
}

type Option func(*options)

// WithLogger makes the client write one debug line per request and response.
// Lines only appear when the logger is verbose.
func WithLogger(log *logging.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithEnterpriseURL points the client at a GitHub Enterprise Server instance,
// e.g. https://github.example.com/api/v3/.
func WithEnterpriseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimSpace(baseURL)
	}
}

// WithRequestTimeout bounds every single HTTP request.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// loggingRoundTripper emits one line per request and response (including latency).
type loggingRoundTripper struct {
	base http.RoundTripper
	log  *logging.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.log.Debugf("%s %s", req.Method, req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.log.Debugf("error after %s: %v", dur, err)
	} else {
		t.log.Debugf("%d %s (%s)", resp.StatusCode, http.StatusText(resp.StatusCode), dur)
	}
	return resp, err
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	transport := http.DefaultTransport
	if o.log.Verbose() {
		transport = &loggingRoundTripper{base: transport, log: o.log.Named("github api")}
	}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	tc := &http.Client{Transport: transport, Timeout: o.timeout}

	client := github.NewClient(tc)
	if o.baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(o.baseURL, o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github client: invalid enterprise URL %q: %w", o.baseURL, err)
		}
	}

	return &Client{
		Client: client,
		HTTP:   tc,
	}, nil
}
