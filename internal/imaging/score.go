package imaging

import (
	"gonum.org/v1/gonum/floats"
)

// Score is a quality score in [0, 100].
type Score = float64

const (
	// MaxScore is the upper bound of every score.
	MaxScore Score = 100

	// EdgeScoreGain scales the mean edge intensity (as a fraction of 255)
	// into the score range. It is an empirical tuning value chosen so that
	// typical leaf photographs land mid-range; it is not derived from any
	// physical quantity. Changing it silently changes every reported score.
	EdgeScoreGain = 400
)

// EdgeScore summarizes edge complexity as a score in [0, 100]:
//
//	score = min(100, mean(magnitude) / 255 * EdgeScoreGain)
//
// Magnitudes are averaged as computed, before the 255 clamp that applies
// only when rendering the edge map, so a few very strong edges can saturate
// the score. A flat image, and any image narrower or shorter than 3 pixels,
// scores 0.
func EdgeScore(grad *GradientGrid) Score {
	n := len(grad.Magnitude)
	if n == 0 {
		return 0
	}
	mean := floats.Sum(grad.Magnitude) / float64(n)
	return clampFloat(mean/255*EdgeScoreGain, 0, MaxScore)
}

// BrightnessScore maps the mean luma of a grid onto [0, 100]: an all-black
// image scores 0, an all-white image 100.
func BrightnessScore(luma *LumaGrid) Score {
	n := len(luma.Values)
	if n == 0 {
		return 0
	}
	mean := floats.Sum(luma.Values) / float64(n)
	return clampFloat(mean/255*MaxScore, 0, MaxScore)
}

// BrightnessScoreFromPixels is BrightnessScore for callers that have not
// built a luma grid yet.
func BrightnessScoreFromPixels(grid *PixelGrid) Score {
	return BrightnessScore(ToLuma(grid))
}
