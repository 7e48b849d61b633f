package browse

import "context"

// Node is an opaque handle into a fetched page. Pattern syntax is whatever the
// underlying implementation understands; the production implementation uses
// CSS selectors.
type Node interface {
	// Find returns every descendant matching the pattern. An unparseable or
	// unmatched pattern yields an empty slice, never an error.
	Find(pattern string) []Node
	// Text returns the node's trimmed text content.
	Text() string
	Attr(name string) (string, bool)
	Tag() string
	Parent() (Node, bool)
	Children() []Node
}

// Session is one browsing context. NewContext opens an isolated context with
// its own cookie state; the parent session stays usable and unaffected.
type Session interface {
	Navigate(ctx context.Context, url string) (Node, error)
	NewContext() (Session, error)
	Close() error
}

// InContext runs fn inside a freshly opened browsing context and closes it on
// every exit path, so the caller's session is the active one again when
// InContext returns.
func InContext(s Session, fn func(Session) error) (err error) {
	aux, err := s.NewContext()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := aux.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(aux)
}
