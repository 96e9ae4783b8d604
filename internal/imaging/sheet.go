package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// sheetGap is the spacing between levels on a mip sheet.
const sheetGap = 2

// SheetResult is a contact sheet of a mip chain.
type SheetResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Levels      int    `json:"levels"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// MipSheet lays out slice z of every level left to right, top-aligned, and
// labels each level with its index where it fits. background is a hex
// color such as "#202020"; empty means transparent.
func MipSheet(levels []*Container, z int, background string) (*SheetResult, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("no levels to lay out")
	}
	bg := color.NRGBA{}
	if background != "" {
		c, err := colorful.Hex(background)
		if err != nil {
			return nil, fmt.Errorf("invalid background color %q: %w", background, err)
		}
		r, g, b := c.RGB255()
		bg = color.NRGBA{R: r, G: g, B: b, A: 255}
	}

	width, height := 0, 0
	for i, lv := range levels {
		if i > 0 {
			width += sheetGap
		}
		width += lv.Width()
		height = max(height, lv.Height())
	}

	sheet := imaging.New(width, height, bg)
	labelFg := color.NRGBA{255, 255, 255, 255}
	labelBg := color.NRGBA{0, 0, 0, 180}
	x := 0
	for i, lv := range levels {
		img, err := lv.ToImage(min(z, lv.Depth()-1))
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", i, err)
		}
		sheet = imaging.Paste(sheet, img, image.Pt(x, 0))

		label := strconv.Itoa(i)
		if lv.Width() >= len(label)*glyphAdvance+2 && lv.Height() >= glyphHeight+2 {
			drawLabel(sheet, x+1, 1, label, labelFg, labelBg)
		}
		x += lv.Width() + sheetGap
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sheet); err != nil {
		return nil, fmt.Errorf("failed to encode mip sheet: %w", err)
	}
	return &SheetResult{
		Width:       width,
		Height:      height,
		Levels:      len(levels),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

const (
	glyphAdvance = 4
	glyphHeight  = 5
)

// 3x5 pixel digits.
var glyphs = map[rune][glyphHeight]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
}

// drawLabel draws text on a filled box whose top-left text pixel is (x, y).
// Pixels outside img are skipped.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	bounds := img.Bounds()
	set := func(px, py int, c color.NRGBA) {
		if image.Pt(px, py).In(bounds) {
			img.SetNRGBA(px, py, c)
		}
	}

	for dy := -1; dy <= glyphHeight; dy++ {
		for dx := -1; dx < len(text)*glyphAdvance; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		if glyph, ok := glyphs[ch]; ok {
			for row, line := range glyph {
				for col, on := range line {
					if on == '1' {
						set(cx+col, y+row, fg)
					}
				}
			}
		}
		cx += glyphAdvance
	}
}
