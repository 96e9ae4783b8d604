package imaging

import (
	"math"
)

// diffThreshold is the mean absolute component difference above which a
// texel counts as different, in normalized units (10 of 255).
const diffThreshold = 10.0 / 255

// maxPSNR is reported for identical images.
const maxPSNR = 99

// CompareResult summarizes the difference between two images.
type CompareResult struct {
	// SimilarityScore is the fraction of texels that are not different.
	SimilarityScore float64 `json:"similarity_score"`
	TexelsDifferent int     `json:"texels_different"`
	TotalTexels     int     `json:"total_texels"`

	// Components is the number of leading components compared.
	Components int `json:"components"`

	// RMSE holds the root mean square error per component.
	RMSE []float64 `json:"rmse"`

	// PSNR is the peak signal-to-noise ratio in dB over all compared
	// components, with a peak of 1. Identical images report 99.
	PSNR float64 `json:"psnr_db"`

	MaxError         float64 `json:"max_error"`
	AverageColorDiff float64 `json:"average_color_diff"`
}

// Compare measures how far b is from a, texel by texel. Components are
// compared as stored, so both images should use the same color encoding.
// Only the leading components both images have are compared.
//
// # Errors
//
//   - Returns an Other error when the dimensions differ
func Compare(a, b *Container) (*CompareResult, error) {
	if a.width != b.width || a.height != b.height || a.depth != b.depth {
		return nil, errorf("compare", Other, "image sizes differ: %dx%dx%d vs %dx%dx%d",
			a.width, a.height, a.depth, b.width, b.height, b.depth)
	}
	na, nb := a.format.Count, b.format.Count
	n := min(na, nb)
	va, vb := a.floats(), b.floats()

	total := a.TexelCount()
	sq := make([]float64, n)
	different := 0
	var maxErr, totalDiff float64
	for i := 0; i < total; i++ {
		var diff float64
		for k := 0; k < n; k++ {
			d := math.Abs(float64(va[i*na+k]) - float64(vb[i*nb+k]))
			sq[k] += d * d
			diff += d
			maxErr = math.Max(maxErr, d)
		}
		diff /= float64(n)
		totalDiff += diff
		if diff > diffThreshold {
			different++
		}
	}

	rmse := make([]float64, n)
	var mse float64
	for k := range sq {
		mse += sq[k]
		rmse[k] = round(math.Sqrt(sq[k]/float64(total)), 6)
	}
	mse /= float64(total * n)
	psnr := float64(maxPSNR)
	if mse > 0 {
		psnr = math.Min(maxPSNR, 10*math.Log10(1/mse))
	}

	return &CompareResult{
		SimilarityScore:  round(1-float64(different)/float64(total), 3),
		TexelsDifferent:  different,
		TotalTexels:      total,
		Components:       n,
		RMSE:             rmse,
		PSNR:             round(psnr, 2),
		MaxError:         round(maxErr, 6),
		AverageColorDiff: round(totalDiff/float64(total), 6),
	}, nil
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
