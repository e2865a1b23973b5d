package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStars(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  [5]Icon
	}{
		{"zero", 0, [5]Icon{Empty, Empty, Empty, Empty, Empty}},
		{"half", 0.5, [5]Icon{Half, Empty, Empty, Empty, Empty}},
		{"one", 1, [5]Icon{Full, Empty, Empty, Empty, Empty}},
		{"two and a half", 2.5, [5]Icon{Full, Full, Half, Empty, Empty}},
		{"fraction rounds to half not up", 3.999, [5]Icon{Full, Full, Full, Half, Empty}},
		{"five", 5, [5]Icon{Full, Full, Full, Full, Full}},
		{"just under five", 4.2, [5]Icon{Full, Full, Full, Full, Half}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stars(tt.value))
		})
	}
}

func TestIconClass(t *testing.T) {
	assert.Equal(t, "fa fa-star", Full.Class())
	assert.Equal(t, "fa fa-star-half-o", Half.Class())
	assert.Equal(t, "fa fa-star-o", Empty.Class())
}

func TestPercentage(t *testing.T) {
	// A zero total is raised to 1 before dividing, never NaN or Inf.
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 300.0, Percentage(3, 0))

	assert.Equal(t, 80.0, Percentage(8, 10))
	assert.Equal(t, 20.0, Percentage(2, 10))
	assert.Equal(t, 0.0, Percentage(0, 10))
	assert.InDelta(t, 33.333, Percentage(1, 3), 0.001)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "80.00", FormatPercent(Percentage(8, 10)))
	assert.Equal(t, "20.00", FormatPercent(Percentage(2, 10)))
	assert.Equal(t, "0.00", FormatPercent(Percentage(0, 10)))
	assert.Equal(t, "33.33", FormatPercent(Percentage(1, 3)))
}
