package registry

import (
	"errors"
	"fmt"
)

// ErrNoAssertions marks a snippet file without any parsable assertion
var ErrNoAssertions = errors.New("no parsable assertions")

// LoadError reports a snippet path that could not be loaded. For a single
// file it is recorded and loading continues; for the root it aborts the load.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
