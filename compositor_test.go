package main

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeNeutralKeepsPixels(t *testing.T) {
	img := gradient(40, 30)
	src := pngAsset(t, img)

	out, err := NewCompositor(pngEncoder).Composite(context.Background(), src, NeutralAdjustments())
	require.NoError(t, err)
	assert.Equal(t, 40, out.Width())
	assert.Equal(t, 30, out.Height())

	got := decodeAsset(t, out)
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			require.Equal(t, img.NRGBAAt(x, y), nrgbaAt(got, x, y))
		}
	}
}

func TestCompositeIsDeterministic(t *testing.T) {
	src := pngAsset(t, gradient(40, 30))
	c := NewCompositor(pngEncoder)
	adj := Adjustments{Preset: PresetVintage, Brightness: 150, Contrast: 80, Saturation: 120, Blur: 1, Rotation: 90}

	a, err := c.Composite(context.Background(), src, adj)
	require.NoError(t, err)
	b, err := c.Composite(context.Background(), src, adj)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	neutral, err := c.Composite(context.Background(), src, NeutralAdjustments())
	require.NoError(t, err)
	assert.False(t, a.Equal(neutral))
}

func TestCompositeRotationKeepsSize(t *testing.T) {
	src := pngAsset(t, gradient(60, 40))
	adj := NeutralAdjustments()
	adj.Rotation = 90

	out, err := NewCompositor(pngEncoder).Composite(context.Background(), src, adj)
	require.NoError(t, err)
	assert.Equal(t, 60, out.Width())
	assert.Equal(t, 40, out.Height())

	// corners fall outside the rotated image
	assert.Equal(t, uint8(0), nrgbaAt(decodeAsset(t, out), 0, 0).A)
}

func TestCompositeBlackAndWhite(t *testing.T) {
	adj := NeutralAdjustments()
	adj.Preset = PresetBW
	out := Render(gradient(32, 24), adj)

	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			px := nrgbaAt(out, x, y)
			require.Equal(t, px.R, px.G)
			require.Equal(t, px.R, px.B)
		}
	}
}

func TestCompositeRejectsInvalid(t *testing.T) {
	src := pngAsset(t, gradient(8, 8))
	c := NewCompositor(pngEncoder)

	adj := NeutralAdjustments()
	adj.Brightness = 250
	_, err := c.Composite(context.Background(), src, adj)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "brightness", verr.Field)

	_, err = c.Composite(context.Background(), RasterAsset{}, NeutralAdjustments())
	assert.ErrorIs(t, err, ErrInputNotReady)
}

func TestAdjustmentsClamp(t *testing.T) {
	got := Adjustments{
		Preset:     "Sparkle",
		Brightness: 250,
		Contrast:   -5,
		Saturation: math.NaN(),
		Blur:       20,
		Rotation:   -400,
	}.Clamp()

	assert.Equal(t, Adjustments{
		Preset:     PresetNormal,
		Brightness: 200,
		Contrast:   0,
		Saturation: 100,
		Blur:       10,
		Rotation:   -180,
	}, got)
	assert.NoError(t, got.Validate())
}

func TestAdjustmentsID(t *testing.T) {
	a := NeutralAdjustments()
	b := NeutralAdjustments()
	assert.Equal(t, a.ID(), b.ID())
	b.Rotation = 1
	assert.NotEqual(t, a.ID(), b.ID())
}
