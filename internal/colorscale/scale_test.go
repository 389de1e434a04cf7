package colorscale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

func fptr(v float64) *float64 { return &v }

func rangeOf(min, max float64) models.ValueRange {
	return models.ValueRange{Min: &min, Max: &max}
}

func TestNewRejectsBadHex(t *testing.T) {
	_, err := New("not-a-color", DefaultHighHex, DefaultNeutralHex)
	assert.Error(t, err)

	_, err = New(DefaultLowHex, "#12345", DefaultNeutralHex)
	assert.Error(t, err)
}

func TestColorForNilValueIsNeutral(t *testing.T) {
	s := Default()

	got := s.ColorFor(nil, rangeOf(1, 3))
	assert.Equal(t, DefaultNeutralHex, got.Hex)
	assert.True(t, got.Neutral)
	assert.Zero(t, got.T)

	// Neutral also wins when the range itself is empty.
	got = s.ColorFor(nil, models.ValueRange{})
	assert.True(t, got.Neutral)
}

func TestColorForEndpoints(t *testing.T) {
	s := Default()
	rng := rangeOf(2.00, 5.00)

	low := s.ColorFor(fptr(2.00), rng)
	assert.Equal(t, DefaultLowHex, low.Hex)
	assert.Equal(t, 0.0, low.T)
	assert.False(t, low.Neutral)

	high := s.ColorFor(fptr(5.00), rng)
	assert.Equal(t, DefaultHighHex, high.Hex)
	assert.Equal(t, 1.0, high.T)
}

func TestColorForClampsOutOfRange(t *testing.T) {
	s := Default()
	rng := rangeOf(2.00, 5.00)

	below := s.ColorFor(fptr(1.50), rng)
	assert.Equal(t, DefaultLowHex, below.Hex)
	assert.Equal(t, 0.0, below.T)

	above := s.ColorFor(fptr(7.25), rng)
	assert.Equal(t, DefaultHighHex, above.Hex)
	assert.Equal(t, 1.0, above.T)
}

func TestColorForDegenerateRange(t *testing.T) {
	s := Default()
	rng := rangeOf(3.99, 3.99)

	// A single distinct value carries no ordering, so the swatch falls back
	// to neutral instead of pinning every marker to the low endpoint.
	got := s.ColorFor(fptr(3.99), rng)
	assert.Equal(t, DefaultNeutralHex, got.Hex)
	assert.Equal(t, 0.0, got.T)
	assert.True(t, got.Neutral)
}

func TestPositionIsLinear(t *testing.T) {
	s := Default()
	rng := rangeOf(1.00, 3.00)

	assert.InDelta(t, 0.25, s.Position(1.50, rng), 1e-9)
	assert.InDelta(t, 0.5, s.Position(2.00, rng), 1e-9)
	assert.InDelta(t, 0.75, s.Position(2.50, rng), 1e-9)
}

func TestMidpointBlendsBetweenEndpoints(t *testing.T) {
	s := Default()
	rng := rangeOf(0, 10)

	mid := s.ColorFor(fptr(5), rng)
	require.False(t, mid.Neutral)
	assert.InDelta(t, 0.5, mid.T, 1e-9)
	assert.NotEqual(t, DefaultLowHex, mid.Hex)
	assert.NotEqual(t, DefaultHighHex, mid.Hex)
	// Red channel should sit between the endpoints: 0x2e < r < 0xc6.
	assert.Greater(t, mid.Hex[1:3], "2e")
	assert.Less(t, mid.Hex[1:3], "c6")
}

func TestCustomScaleEndpoints(t *testing.T) {
	s, err := New("#000000", "#ffffff", "#808080")
	require.NoError(t, err)

	rng := rangeOf(0, 1)
	assert.Equal(t, "#000000", s.ColorFor(fptr(0), rng).Hex)
	assert.Equal(t, "#ffffff", s.ColorFor(fptr(1), rng).Hex)

	// Pure gray blend of black and white at the midpoint.
	mid := s.ColorFor(fptr(0.5), rng)
	assert.Equal(t, "#808080", mid.Hex)
}
