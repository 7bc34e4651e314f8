package gpu

import "errors"

// ErrSetup marks failures while building GPU state: shader compilation,
// texture or target allocation, incomplete framebuffers, bad input assets.
// Setup failures are fatal; nothing is rendered after one.
var ErrSetup = errors.New("gpu setup failed")

// ErrFrame marks a failure inside a single frame. The next frame runs
// independently; callers report it and move on.
var ErrFrame = errors.New("gpu frame failed")
