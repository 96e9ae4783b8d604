package astc

import (
	"fmt"
)

var fileMagic = [4]byte{0x13, 0xAB, 0xA1, 0x5C}

// HeaderSize is the length of the .astc file header.
const HeaderSize = 16

// maxDim is the largest size a 24-bit header field can carry.
const maxDim = 1<<24 - 1

// Header is the .astc file header.
type Header struct {
	Block                BlockSize
	Width, Height, Depth int
}

// BlockCount returns the number of blocks the payload must contain.
func (h Header) BlockCount() int {
	bx, by, bz := h.Block.Blocks(h.Width, h.Height, h.Depth)
	return bx * by * bz
}

// payloadSize returns the payload length in bytes the header describes. It
// fails when that exceeds avail, and never forms a product larger than avail.
func (h Header) payloadSize(avail int) (int, error) {
	bx, by, bz := h.Block.Blocks(h.Width, h.Height, h.Depth)
	n := avail / BlockBytes
	if bx > n || by > n/bx || bz > n/(bx*by) {
		return 0, fmt.Errorf("%w: %dx%dx%d blocks need more than %d payload bytes", ErrBadHeader, bx, by, bz, avail)
	}
	return bx * by * bz * BlockBytes, nil
}

func (h Header) validate() error {
	if h.Block.X < 1 || h.Block.Y < 1 || h.Block.Z < 1 || h.Block.X > 255 || h.Block.Y > 255 || h.Block.Z > 255 {
		return fmt.Errorf("%w: block %v", ErrBadHeader, h.Block)
	}
	for _, d := range []int{h.Width, h.Height, h.Depth} {
		if d < 1 || d > maxDim {
			return fmt.Errorf("%w: size %dx%dx%d", ErrBadHeader, h.Width, h.Height, h.Depth)
		}
	}
	return nil
}

// MarshalBinary encodes the header.
func (h Header) MarshalBinary() ([]byte, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	out := make([]byte, HeaderSize)
	copy(out, fileMagic[:])
	out[4], out[5], out[6] = byte(h.Block.X), byte(h.Block.Y), byte(h.Block.Z)
	putU24(out[7:], h.Width)
	putU24(out[10:], h.Height)
	putU24(out[13:], h.Depth)
	return out, nil
}

// ParseHeader decodes the first HeaderSize bytes of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d byte header", ErrBadHeader, len(data))
	}
	if [4]byte(data[:4]) != fileMagic {
		return Header{}, fmt.Errorf("%w: bad magic", ErrBadHeader)
	}
	h := Header{
		Block:  BlockSize{X: int(data[4]), Y: int(data[5]), Z: int(data[6])},
		Width:  getU24(data[7:]),
		Height: getU24(data[10:]),
		Depth:  getU24(data[13:]),
	}
	return h, h.validate()
}

// File is a parsed .astc file.
type File struct {
	Header Header
	Blocks []byte
}

// MarshalFile writes a header followed by the block payload.
func MarshalFile(h Header, blocks []byte) ([]byte, error) {
	hdr, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	want, err := h.payloadSize(len(blocks))
	if err != nil {
		return nil, err
	}
	if len(blocks) != want {
		return nil, fmt.Errorf("%w: %d payload bytes, want %d", ErrBadHeader, len(blocks), want)
	}
	return append(hdr, blocks...), nil
}

// ParseFile splits a .astc file into header and block payload. A
// supercompressed file is inflated first.
func ParseFile(data []byte) (File, error) {
	data, err := Inflate(data)
	if err != nil {
		return File{}, err
	}
	h, err := ParseHeader(data)
	if err != nil {
		return File{}, err
	}
	want, err := h.payloadSize(len(data) - HeaderSize)
	if err != nil {
		return File{}, err
	}
	return File{Header: h, Blocks: data[HeaderSize : HeaderSize+want]}, nil
}

func putU24(b []byte, v int) {
	b[0], b[1], b[2] = byte(v), byte(v>>8), byte(v>>16)
}

func getU24(b []byte) int {
	return int(b[0]) | int(b[1])<<8 | int(b[2])<<16
}
