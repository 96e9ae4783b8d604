// Package pixel describes how texels are laid out in memory and converts
// component values between the supported storage types.
//
// A texel is Count components of a single ComponentType, stored
// contiguously. Mixed-type layouts cannot be expressed.
package pixel

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/x448/float16"
)

// ComponentType is the storage type of a single texel component.
type ComponentType uint8

const (
	// Int8 stores a signed normalized value in [-1, 1] as a two's
	// complement byte scaled by 127.
	Int8 ComponentType = iota
	// UInt8 stores an unsigned normalized value in [0, 1] scaled by 255.
	UInt8
	// Float16 stores an IEEE-754 binary16 value, little-endian.
	Float16
)

// MaxComponents is the largest component count a texel may carry.
const MaxComponents = 4

type componentCodec struct {
	name   string
	size   int
	decode func(b []byte) float32
	encode func(b []byte, v float32)
}

var codecs = [...]componentCodec{
	Int8: {
		name: "int8",
		size: 1,
		decode: func(b []byte) float32 {
			return float32(int8(b[0])) / 127
		},
		encode: func(b []byte, v float32) {
			b[0] = byte(int8(quantize(v, -1, 1, 127)))
		},
	},
	UInt8: {
		name: "uint8",
		size: 1,
		decode: func(b []byte) float32 {
			return float32(b[0]) / 255
		},
		encode: func(b []byte, v float32) {
			b[0] = byte(quantize(v, 0, 1, 255))
		},
	},
	Float16: {
		name: "float16",
		size: 2,
		decode: func(b []byte) float32 {
			return float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
		},
		encode: func(b []byte, v float32) {
			binary.LittleEndian.PutUint16(b, float16.Fromfloat32(v).Bits())
		},
	},
}

func quantize(v, lo, hi, scale float32) int32 {
	if v != v { // NaN
		return 0
	}
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return int32(math.Round(float64(v * scale)))
}

// Valid reports whether t is one of the known component types.
func (t ComponentType) Valid() bool {
	return int(t) < len(codecs)
}

// Size returns the number of bytes one component occupies, or 0 for an
// unknown type.
func (t ComponentType) Size() int {
	if !t.Valid() {
		return 0
	}
	return codecs[t].size
}

func (t ComponentType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ComponentType(%d)", uint8(t))
	}
	return codecs[t].name
}

// ParseComponentType maps "int8", "uint8" or "float16" to its type.
func ParseComponentType(s string) (ComponentType, error) {
	for i, c := range codecs {
		if c.name == s {
			return ComponentType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown component type %q", s)
}

// Format is a homogeneous texel layout.
type Format struct {
	Type  ComponentType
	Count int
}

// ByteSize returns the number of bytes of one texel.
func (f Format) ByteSize() int {
	return f.Count * f.Type.Size()
}

// IsHomogeneous reports whether every component of the layout shares one
// valid type and the component count is in range. Format cannot encode
// mixed types, so this only fails for invalid values.
func (f Format) IsHomogeneous() bool {
	return f.Type.Valid() && f.Count >= 1 && f.Count <= MaxComponents
}

// Validate returns a descriptive error for an unusable layout.
func (f Format) Validate() error {
	if !f.Type.Valid() {
		return fmt.Errorf("unknown component type %d", uint8(f.Type))
	}
	if f.Count < 1 || f.Count > MaxComponents {
		return fmt.Errorf("component count %d out of range 1..%d", f.Count, MaxComponents)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dx%s", f.Count, f.Type)
}

// rowBatch is the number of texels converted per parallel work item.
const rowBatch = 4096

// DecodeFloat32 expands every component in src to float32.
// len(src) must be a multiple of f.ByteSize().
func DecodeFloat32(src []byte, f Format) []float32 {
	size := f.Type.Size()
	n := len(src) / size
	out := make([]float32, n)
	dec := codecs[f.Type].decode
	forBatches(n, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = dec(src[i*size:])
		}
	})
	return out
}

// EncodeFloat32 stores src into dst using the component type of f.
// dst must hold len(src)*f.Type.Size() bytes.
func EncodeFloat32(dst []byte, src []float32, f Format) {
	size := f.Type.Size()
	enc := codecs[f.Type].encode
	forBatches(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			enc(dst[i*size:], src[i])
		}
	})
}

// Convert re-encodes a buffer of components from one type to another.
func Convert(src []byte, from, to ComponentType) []byte {
	if from == to {
		out := make([]byte, len(src))
		copy(out, src)
		return out
	}
	vals := DecodeFloat32(src, Format{Type: from, Count: 1})
	out := make([]byte, len(vals)*to.Size())
	EncodeFloat32(out, vals, Format{Type: to, Count: 1})
	return out
}

// Component reads a single component at byte offset off.
func Component(src []byte, off int, t ComponentType) float32 {
	return codecs[t].decode(src[off:])
}

// SetComponent writes a single component at byte offset off.
func SetComponent(dst []byte, off int, t ComponentType, v float32) {
	codecs[t].encode(dst[off:], v)
}

func forBatches(n int, fn func(start, end int)) {
	if n <= rowBatch {
		fn(0, n)
		return
	}
	batches := (n + rowBatch - 1) / rowBatch
	parallel.Line(batches, func(bs, be int) {
		start, end := bs*rowBatch, be*rowBatch
		if end > n {
			end = n
		}
		fn(start, end)
	})
}
