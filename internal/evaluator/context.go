package evaluator

import "payloadmedic/internal/tracker"

// Context is what an evaluator sees for one dependency issue. Exactly one of the
// payload tracker or the fix version is set, depending on how the batch was started.
type Context struct {
	issue          *tracker.Issue
	payloadTracker *tracker.Issue
	fixVersion     string
	trackerType    tracker.Type
	stream         tracker.Stream
}

// NewTransitiveContext binds a dependency discovered through a payload tracking issue.
func NewTransitiveContext(dep, payloadTracker *tracker.Issue, trackerType tracker.Type, stream tracker.Stream) *Context {
	return &Context{
		issue:          dep,
		payloadTracker: payloadTracker,
		trackerType:    trackerType,
		stream:         stream,
	}
}

// NewExplicitContext binds a dependency handed in by the caller for a fix version.
func NewExplicitContext(dep *tracker.Issue, fixVersion string, trackerType tracker.Type, stream tracker.Stream) *Context {
	return &Context{
		issue:       dep,
		fixVersion:  fixVersion,
		trackerType: trackerType,
		stream:      stream,
	}
}

func (c *Context) Issue() *tracker.Issue          { return c.issue }
func (c *Context) PayloadTracker() *tracker.Issue { return c.payloadTracker }
func (c *Context) FixVersion() string             { return c.fixVersion }
func (c *Context) TrackerType() tracker.Type      { return c.trackerType }
func (c *Context) Stream() tracker.Stream         { return c.stream }

// Transitive reports whether the context was built from a payload tracking issue.
func (c *Context) Transitive() bool { return c.payloadTracker != nil }

// Correlation is the identifier tying the dependency to its batch: the payload
// tracker URL or the fix version.
func (c *Context) Correlation() string {
	if c.payloadTracker != nil {
		return c.payloadTracker.URL
	}
	return c.fixVersion
}
