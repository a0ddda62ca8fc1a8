package registry

import "errors"

// ErrNotFound indicates the requested podcast or episode does not exist.
var ErrNotFound = errors.New("registry: not found")

// ErrInvalidTransition indicates a status change that the lifecycle does not
// permit from the episode's current state.
var ErrInvalidTransition = errors.New("registry: invalid status transition")
