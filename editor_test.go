package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditorNeedsStaging(t *testing.T) {
	_, err := NewEditorView(context.Background(), NewCompositor(pngEncoder), Staging{})
	assert.ErrorIs(t, err, ErrMissingStaging)

	_, err = NewEditorView(context.Background(), NewCompositor(pngEncoder), NewCropStaging(RasterAsset{}, testMeta()))
	assert.ErrorIs(t, err, ErrMissingStaging)
}

func TestEditorAdjust(t *testing.T) {
	ctx := context.Background()
	src := pngAsset(t, gradient(40, 30))
	e, err := NewEditorView(ctx, NewCompositor(pngEncoder), NewCropStaging(src, testMeta()))
	require.NoError(t, err)
	assert.Equal(t, NeutralAdjustments(), e.Adjustments())
	neutral := e.Preview()

	preview, err := e.Adjust(ctx, Adjustments{Preset: PresetBW, Brightness: 350, Contrast: 100, Saturation: 100, Blur: -1})
	require.NoError(t, err)
	assert.Equal(t, 200.0, e.Adjustments().Brightness)
	assert.Equal(t, 0.0, e.Adjustments().Blur)
	assert.False(t, preview.Equal(neutral))
	assert.True(t, e.Source().Equal(src))

	st := e.State()
	assert.Equal(t, "grayscale(100%) brightness(200%) contrast(100%) saturate(100%) blur(0px)", st.Filter)
	assert.Equal(t, Presets(), st.Presets)

	reset, err := e.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, NeutralAdjustments(), e.Adjustments())
	assert.True(t, reset.Equal(neutral))
}

func TestEditorSave(t *testing.T) {
	ctx := context.Background()
	src := pngAsset(t, gradient(40, 30))
	e, err := NewEditorView(ctx, NewCompositor(pngEncoder), NewEditStaging(src, testMeta()))
	require.NoError(t, err)

	adj := NeutralAdjustments()
	adj.Rotation = 45
	_, err = e.Adjust(ctx, adj)
	require.NoError(t, err)

	saved := e.Save(ctx)
	assert.Equal(t, "edit", saved.Kind())
	assert.Equal(t, testMeta(), saved.Meta())
	assert.True(t, saved.Asset().Equal(e.Preview()))
	assert.False(t, saved.Asset().Equal(src))
}
