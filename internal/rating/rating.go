// Package rating converts fractional ratings into star icon sequences and
// rating counts into display percentages.
package rating

import (
	"math"
	"strconv"
)

// Icon is one of the five star slots on a rating row.
type Icon int

// Icon kinds, in display order of fullness.
const (
	Empty Icon = iota
	Half
	Full
)

// Class returns the Font Awesome class list the templates use for the icon.
func (i Icon) Class() string {
	switch i {
	case Full:
		return "fa fa-star"
	case Half:
		return "fa fa-star-half-o"
	default:
		return "fa fa-star-o"
	}
}

// Stars quantizes a rating in [0,5] into five icons: trunc(value) full stars,
// a half star iff the value has a fractional part, empty stars for the rest.
// Values outside [0,5] are a caller contract violation and are not defended
// against.
func Stars(value float64) [5]Icon {
	var icons [5]Icon
	full := int(math.Trunc(value))
	for i := 0; i < full; i++ {
		icons[i] = Full
	}
	if full < 5 && float64(full) != value {
		icons[full] = Half
		full++
	}
	for i := full; i < 5; i++ {
		icons[i] = Empty
	}
	return icons
}

// Percentage computes count/total*100. A total below 1 is raised to 1 first,
// so a zero count over a zero total yields 0 rather than NaN.
func Percentage(count, total int) float64 {
	if total < 1 {
		total = 1
	}
	return float64(count) / float64(total) * 100
}

// FormatPercent renders a percentage to two decimal places, the precision
// the book page's rating bars display.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
