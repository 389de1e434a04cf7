package colorscale

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

// Default endpoint colors. Low is the cheap end, high the expensive end,
// neutral the fallback for stores without a usable value.
const (
	DefaultLowHex     = "#2e7d32"
	DefaultHighHex    = "#c62828"
	DefaultNeutralHex = "#9e9e9e"
)

// Scale maps a scalar value inside an observed range onto a color between
// two endpoints. Interpolation is linear per RGB channel.
type Scale struct {
	low     colorful.Color
	high    colorful.Color
	neutral colorful.Color

	lowHex     string
	highHex    string
	neutralHex string
}

// New builds a scale from three hex colors.
func New(lowHex, highHex, neutralHex string) (Scale, error) {
	low, err := colorful.Hex(lowHex)
	if err != nil {
		return Scale{}, fmt.Errorf("parse low color %q: %w", lowHex, err)
	}
	high, err := colorful.Hex(highHex)
	if err != nil {
		return Scale{}, fmt.Errorf("parse high color %q: %w", highHex, err)
	}
	neutral, err := colorful.Hex(neutralHex)
	if err != nil {
		return Scale{}, fmt.Errorf("parse neutral color %q: %w", neutralHex, err)
	}
	return Scale{
		low:        low,
		high:       high,
		neutral:    neutral,
		lowHex:     low.Hex(),
		highHex:    high.Hex(),
		neutralHex: neutral.Hex(),
	}, nil
}

// Default returns the green-to-red price scale.
func Default() Scale {
	s, _ := New(DefaultLowHex, DefaultHighHex, DefaultNeutralHex)
	return s
}

// LowHex returns the normalized low endpoint color.
func (s Scale) LowHex() string { return s.lowHex }

// HighHex returns the normalized high endpoint color.
func (s Scale) HighHex() string { return s.highHex }

// NeutralHex returns the normalized fallback color.
func (s Scale) NeutralHex() string { return s.neutralHex }

// ColorFor resolves the swatch for a value against the observed range. A nil
// value, an empty range, or a single-value range all yield the neutral
// swatch: with fewer than two distinct values there is no ordering to color.
func (s Scale) ColorFor(v *float64, rng models.ValueRange) models.Swatch {
	if v == nil || rng.IsEmpty() || rng.Degenerate() {
		return models.Swatch{Hex: s.neutralHex, Neutral: true}
	}
	t := s.Position(*v, rng)
	return models.Swatch{Hex: s.low.BlendRgb(s.high, t).Hex(), T: t}
}

// Position normalizes a value into [0, 1] within the range. Values outside
// the range clamp to the nearest endpoint. An empty or single-value range
// pins everything to the low endpoint.
func (s Scale) Position(v float64, rng models.ValueRange) float64 {
	if rng.IsEmpty() || rng.Degenerate() {
		return 0
	}
	t := (v - *rng.Min) / (*rng.Max - *rng.Min)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
