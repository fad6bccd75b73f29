// Package formats provides readers for the binary multi-mesh container format.
//
// A container holds any number of meshes followed by a trailer that maps
// mesh ids to byte offsets. Each mesh carries an interleaved vertex buffer,
// an index buffer, named subsets and an optional joint table. Subsets are
// deinterleaved into per-attribute arrays once, at load time.
package formats

import "errors"

// Error categories. Every error returned by this package wraps exactly one
// of these so callers can branch with errors.Is.
var (
	ErrIO     = errors.New("mesh io error")
	ErrFormat = errors.New("mesh format error")
	ErrDecode = errors.New("mesh decode error")
)
