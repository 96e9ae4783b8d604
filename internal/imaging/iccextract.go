package imaging

import (
	"bytes"
	"encoding/binary"

	"github.com/mandykoh/prism/meta/autometa"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// embeddedProfile returns the ICC profile carried by a PNG (iCCP), JPEG
// (APP2) or WebP (ICCP) stream, or nil when there is none.
func embeddedProfile(data []byte) ([]byte, error) {
	md, _, err := autometa.Load(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return md.ICCProfileData()
}

// hasSRGBChunk reports whether a PNG declares the sRGB rendering intent
// ahead of its image data.
func hasSRGBChunk(data []byte) bool {
	if !bytes.HasPrefix(data, pngSignature) {
		return false
	}
	for off := len(pngSignature); off+8 <= len(data); {
		n := int(binary.BigEndian.Uint32(data[off:]))
		switch string(data[off+4 : off+8]) {
		case "sRGB":
			return true
		case "IDAT", "IEND":
			return false
		}
		if n < 0 || n > len(data)-off-12 {
			return false
		}
		off += 12 + n
	}
	return false
}
