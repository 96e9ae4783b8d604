package astc

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// maxInflated bounds the decoded size of a supercompressed file.
const maxInflated = 1 << 30

// Supercompress wraps an encoded .astc file in a zstd frame. Constant and
// repeated blocks compress well; ParseFile reads the result directly.
func Supercompress(file []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(file, nil), nil
}

// IsSupercompressed reports whether data starts with a zstd frame.
func IsSupercompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Inflate undoes Supercompress. Data that is not a zstd frame is returned
// unchanged.
func Inflate(data []byte) ([]byte, error) {
	if !IsSupercompressed(data) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxInflated))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrBadHeader, err)
	}
	return out, nil
}
