package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngEncoder = Encoder{Format: EncodingPNG}

// gradient is opaque with red increasing along x and green along y.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(1, w-1)),
				G: uint8(y * 255 / max(1, h-1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, img))
	return b.Bytes()
}

func pngAsset(t *testing.T, img image.Image) RasterAsset {
	t.Helper()
	a, err := NewRasterAsset(encodePNG(t, img))
	require.NoError(t, err)
	return a
}

func testSource(t *testing.T, w, h int) *SourceImage {
	t.Helper()
	src, err := DecodeSource(context.Background(), bytes.NewReader(encodePNG(t, gradient(w, h))), "photo.png")
	require.NoError(t, err)
	return src
}

func decodeAsset(t *testing.T, a RasterAsset) image.Image {
	t.Helper()
	img, err := a.Decode()
	require.NoError(t, err)
	return img
}

func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	b := img.Bounds()
	return color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
}
