// Package imaging provides the texture image model: an immutable Container,
// a mutable Editor, file loading with color classification, resampling and
// ASTC compression. Smaller helpers derive normal maps from height maps,
// compare images and lay out mip chains for preview.
//
// # Data Model
//
// A Container is a width × height × depth volume of texels in one
// pixel.Format, plus color metadata (an optional ICC profile and the sRGB,
// linear and HDR flags). Containers never change after construction; every
// Create* method returns a new one.
//
// An Editor owns a working Container and replaces it wholesale on every
// edit. Snapshots returned by Editor.Image are therefore unaffected by later
// edits, without copying texel data up front.
//
// # Coordinate System
//
// All texel coordinates are 0-based:
//   - X: horizontal position (0 = leftmost texel)
//   - Y: vertical position (0 = topmost texel)
//   - Z: slice index (0 for 2D images)
//
// # Color Classification
//
// Load decides whether data is sRGB or linear from, in order, an embedded
// profile, an assumed profile, and finally the caller's assumption flags.
// DefaultLoadOptions treats .hdr, .tga and .exr as linear and everything
// else as sRGB.
//
// # Progress and Cancellation
//
// Long-running operations take a progress.Sink. Progress is reported in
// [0, 1]; a sink that returns true stops the operation at the next safe
// point and the operation fails with kind Cancelled, producing no output.
//
// # Error Handling
//
// Errors from loading, editing and compression are *Error values carrying
// an ErrorKind. Use KindOf or
// errors.As to branch on the kind. Operations fail atomically: inputs are
// never partially modified.
//
// # Thread Safety
//
// Containers and the ImageCache are safe for concurrent use. An Editor is
// not; callers must serialize operations on one Editor.
package imaging
