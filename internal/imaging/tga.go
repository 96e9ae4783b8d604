package imaging

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ironsheep/texture-tools-mcp/internal/pixel"
)

const tgaHeaderSize = 18

// decodeTGA reads uncompressed and run-length encoded true-color (24/32 bit)
// and grayscale (8 bit) Truevision TGA images. Color-mapped files are
// rejected.
func decodeTGA(data []byte) (*Decoded, error) {
	if len(data) < tgaHeaderSize {
		return nil, errors.New("tga: short header")
	}
	idLen := int(data[0])
	cmapType, imgType := data[1], data[2]
	w := int(binary.LittleEndian.Uint16(data[12:]))
	h := int(binary.LittleEndian.Uint16(data[14:]))
	bpp, desc := int(data[16]), data[17]

	if cmapType != 0 {
		return nil, errors.New("tga: color-mapped images are not supported")
	}
	rle := imgType == 10 || imgType == 11
	gray := imgType == 3 || imgType == 11
	if imgType != 2 && imgType != 3 && !rle {
		return nil, fmt.Errorf("tga: image type %d not supported", imgType)
	}
	switch {
	case gray && bpp != 8, !gray && bpp != 24 && bpp != 32:
		return nil, fmt.Errorf("tga: %d bits per pixel not supported", bpp)
	}
	if err := checkSize("tga", w, h); err != nil {
		return nil, err
	}
	if len(data) < tgaHeaderSize+idLen {
		return nil, errors.New("tga: truncated image ID")
	}

	bytesPP := bpp / 8
	n := w * h * bytesPP
	src := data[tgaHeaderSize+idLen:]
	// an RLE packet expands to at most 128 pixels
	if limit := len(src) / (1 + bytesPP) * 128 * bytesPP; rle && n > limit || !rle && n > len(src) {
		return nil, errors.New("tga: truncated pixel data")
	}
	var raw []byte
	if rle {
		var err error
		if raw, err = unpackTGARLE(src, n, bytesPP); err != nil {
			return nil, err
		}
	} else {
		raw = src[:n]
	}

	out := make([]byte, n)
	topDown := desc&0x20 != 0
	stride := w * bytesPP
	for y := 0; y < h; y++ {
		sy := y
		if !topDown {
			sy = h - 1 - y
		}
		row := raw[sy*stride : (sy+1)*stride]
		dst := out[y*stride : (y+1)*stride]
		if gray {
			copy(dst, row)
			continue
		}
		// stored as BGR(A)
		for x := 0; x < w; x++ {
			p, q := row[x*bytesPP:], dst[x*bytesPP:]
			q[0], q[1], q[2] = p[2], p[1], p[0]
			if bytesPP == 4 {
				q[3] = p[3]
			}
		}
	}
	return &Decoded{
		Width:      w,
		Height:     h,
		Depth:      1,
		Format:     pixel.Format{Type: pixel.UInt8, Count: bytesPP},
		Pixels:     out,
		FileFormat: "tga",
	}, nil
}

func unpackTGARLE(src []byte, n, bytesPP int) ([]byte, error) {
	out := make([]byte, 0, n)
	for i := 0; len(out) < n; {
		if i >= len(src) {
			return nil, errors.New("tga: truncated run-length data")
		}
		head := src[i]
		i++
		count := int(head&0x7F) + 1
		if head&0x80 != 0 {
			if i+bytesPP > len(src) {
				return nil, errors.New("tga: truncated run-length data")
			}
			for ; count > 0; count-- {
				out = append(out, src[i:i+bytesPP]...)
			}
			i += bytesPP
			continue
		}
		if i+count*bytesPP > len(src) {
			return nil, errors.New("tga: truncated run-length data")
		}
		out = append(out, src[i:i+count*bytesPP]...)
		i += count * bytesPP
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
