// Package astc holds the block-compression side of the texture pipeline:
// block footprints, encoder settings, the .astc file container and a
// pluggable Codec.
package astc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// BlockBytes is the size of one compressed block regardless of footprint.
const BlockBytes = 16

var (
	ErrBadBlockSize = errors.New("astc: illegal block size")
	ErrBadQuality   = errors.New("astc: quality out of range")
	ErrBadProfile   = errors.New("astc: unknown profile")
	ErrBadHeader    = errors.New("astc: malformed file")
	ErrBadImage     = errors.New("astc: image incompatible with block size")
)

// BlockSize is a block footprint in texels. Z is 1 for 2D footprints.
type BlockSize struct {
	X, Y, Z int
}

var legal2D = map[[2]int]bool{
	{4, 4}: true, {5, 4}: true, {5, 5}: true, {6, 5}: true, {6, 6}: true,
	{8, 5}: true, {8, 6}: true, {8, 8}: true,
	{10, 5}: true, {10, 6}: true, {10, 8}: true, {10, 10}: true,
	{12, 10}: true, {12, 12}: true,
}

var legal3D = map[[3]int]bool{
	{3, 3, 3}: true, {4, 3, 3}: true, {4, 4, 3}: true, {4, 4, 4}: true,
	{5, 4, 4}: true, {5, 5, 4}: true, {5, 5, 5}: true,
	{6, 5, 5}: true, {6, 6, 5}: true, {6, 6, 6}: true,
}

// Is3D reports whether the footprint spans more than one slice.
func (b BlockSize) Is3D() bool { return b.Z > 1 }

// Validate checks b against the footprints ASTC defines.
func (b BlockSize) Validate() error {
	if b.Z <= 1 {
		if b.Z == 1 && legal2D[[2]int{b.X, b.Y}] {
			return nil
		}
	} else if legal3D[[3]int{b.X, b.Y, b.Z}] {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrBadBlockSize, b)
}

func (b BlockSize) String() string {
	if b.Z > 1 {
		return fmt.Sprintf("%dx%dx%d", b.X, b.Y, b.Z)
	}
	return fmt.Sprintf("%dx%d", b.X, b.Y)
}

// Blocks returns the number of blocks along each axis for an image.
func (b BlockSize) Blocks(width, height, depth int) (bx, by, bz int) {
	return ceilDiv(width, b.X), ceilDiv(height, b.Y), ceilDiv(depth, b.Z)
}

// BitsPerTexel returns the compressed rate of the footprint.
func (b BlockSize) BitsPerTexel() float64 {
	return 128 / float64(b.X*b.Y*b.Z)
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }

// ParseBlockSize parses "6x6" or "4x4x4" and validates the result.
func ParseBlockSize(s string) (BlockSize, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "x")
	if len(parts) < 2 || len(parts) > 3 {
		return BlockSize{}, fmt.Errorf("%w: %q", ErrBadBlockSize, s)
	}
	dims := []int{1, 1, 1}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return BlockSize{}, fmt.Errorf("%w: %q", ErrBadBlockSize, s)
		}
		dims[i] = v
	}
	b := BlockSize{X: dims[0], Y: dims[1], Z: dims[2]}
	return b, b.Validate()
}
