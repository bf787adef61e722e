package hooks

import "errors"

// ErrRenderStorm is returned by Flush when state updates keep scheduling
// renders past the root's render budget. This almost always means an
// effect unconditionally sets state it also depends on.
var ErrRenderStorm = errors.New("hooks: render storm: updates kept scheduling past the render budget")

// ErrRootUnmounted is returned when Mount or Flush is called on a root
// that has been unmounted.
var ErrRootUnmounted = errors.New("hooks: root is unmounted")

// ErrNotMounted is returned by Flush when Mount has not been called yet.
var ErrNotMounted = errors.New("hooks: root is not mounted")
