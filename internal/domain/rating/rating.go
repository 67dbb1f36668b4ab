// Package rating derives continuous ratings from ordinal positions.
//
// Each category owns a fixed closed band. Within a category of N entries
// ratings are a linear interpolation over the band: position 1 maps to the
// band top, position N to the band bottom, and adjacent positions differ by
// exactly (top-bottom)/(N-1). A single-entry category always rates at the
// band top.
package rating

import (
	"fmt"
	"math"

	"github.com/reelrank/reelrank/internal/domain/model"
)

// decimalScale rounds ratings to one decimal place.
const decimalScale = 10

// Band is a closed numeric rating range [Bottom, Top].
type Band struct {
	Bottom float64 `json:"bottom"`
	Top    float64 `json:"top"`
}

// bands maps each category to its fixed rating band.
var bands = map[model.Category]Band{
	model.CategoryLiked:    {Bottom: 6.5, Top: 10.0},
	model.CategoryFine:     {Bottom: 3.5, Top: 6.4},
	model.CategoryDisliked: {Bottom: 0.0, Top: 3.4},
}

// RangeFor returns the rating band for a category.
func RangeFor(category model.Category) (Band, error) {
	b, ok := bands[category]
	if !ok {
		return Band{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	return b, nil
}

// InRange reports whether rating falls inside the category's band.
func InRange(rating float64, category model.Category) bool {
	b, ok := bands[category]
	if !ok {
		return false
	}
	return rating >= b.Bottom && rating <= b.Top
}

// ForPosition computes the rating for an entry at the given 1-based
// position in a category holding total entries.
//
// A zero total is a precondition violation: there is nothing to interpolate
// over, and silently returning a rating would mask a call-order bug.
func ForPosition(position, total int, category model.Category) (float64, error) {
	b, ok := bands[category]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	if total <= 0 {
		return 0, fmt.Errorf("%w: category %s has no entries", ErrEmptyCategory, category)
	}
	if position < 1 || position > total {
		return 0, fmt.Errorf("%w: position %d with %d entries", ErrInvalidPosition, position, total)
	}
	if total == 1 {
		return b.Top, nil
	}
	step := (b.Top - b.Bottom) / float64(total-1)
	return round(b.Top - float64(position-1)*step), nil
}

func round(x float64) float64 {
	return math.Round(x*decimalScale) / decimalScale
}
