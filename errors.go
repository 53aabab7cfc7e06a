package voxelcore

import "errors"

// Error kinds named by spec.md §7. Addressing/node/codec misses are never
// fatal: callers log a warning (silenceable) and treat the operation as a
// no-op. ErrPoolStartup is fatal by policy and is surfaced as a startup
// error rather than swallowed like the others. The "programmer contract"
// kind has no sentinel: scene.MustCreateChild panics instead.
var (
	// ErrSectionMissing: the addressed section has not been loaded.
	ErrSectionMissing = errors.New("voxelcore: section not loaded")
	// ErrNodeMissing: a node id was recorded but the scene store has
	// dropped the node.
	ErrNodeMissing = errors.New("voxelcore: node missing from scene store")
	// ErrPoolStartup: worker pool thread creation failed at startup.
	ErrPoolStartup = errors.New("voxelcore: worker pool startup failed")
)
