package service

import (
	"math"

	"github.com/minsu/vericlip/internal/domain"
)

// ComputeReliability derives the composite trust score from the two
// sub-scores: the average of accuracy and inverted clickbait, rounded,
// clamped to [0, 100].
// Parameters:
//   - accuracy: factual accuracy score, 0-100.
//   - clickbait: clickbait severity score, 0-100.
// Returns:
//   - int: reliability score, 0-100.
func ComputeReliability(accuracy, clickbait int) int {
	r := int(math.Round((float64(accuracy) + float64(100-clickbait)) / 2))
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// TierFor maps a reliability score to its display tier.
// Parameters:
//   - reliability: composite trust score, 0-100.
// Returns:
//   - domain.Tier: green (>=70), yellow (40-69), or red (<=39).
func TierFor(reliability int) domain.Tier {
	switch {
	case reliability >= 70:
		return domain.TierGreen
	case reliability >= 40:
		return domain.TierYellow
	default:
		return domain.TierRed
	}
}
