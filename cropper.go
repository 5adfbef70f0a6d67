package main

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// maxSurfacePixels mirrors the largest drawing surface a browser will allocate.
const maxSurfacePixels = 1 << 28

// Rasterizer exports a native-space region of a source image as a new asset.
type Rasterizer interface {
	Export(ctx context.Context, src *SourceImage, rect Rect) (RasterAsset, error)
}

// ImagingCropper is an implementation of the Rasterizer interface
// using the disintegration/imaging library
type ImagingCropper struct {
	Encoder Encoder
}

// NewImagingCropper creates a new instance of ImagingCropper
func NewImagingCropper(enc Encoder) *ImagingCropper {
	return &ImagingCropper{Encoder: enc}
}

// Export draws the source translated so that rect's origin lands on (0,0),
// onto a surface of rect's size rounded to whole pixels, and encodes it.
// If the surface cannot be allocated the original upload is returned instead.
func (c *ImagingCropper) Export(ctx context.Context, src *SourceImage, rect Rect) (RasterAsset, error) {
	if !src.Ready() {
		return RasterAsset{}, ErrInputNotReady
	}
	if err := ctx.Err(); err != nil {
		return RasterAsset{}, err
	}

	width := int(math.Round(rect.Width))
	height := int(math.Round(rect.Height))
	if width < 1 || height < 1 || width*height > maxSurfacePixels {
		log.Ctx(ctx).Warn().
			Str("filename", src.Name()).
			Stringer("rect", rect).
			Msg("cannot allocate crop surface, keeping original image")
		return src.Original(), nil
	}

	var out image.Image
	if rect.Integral() {
		// Crop clips to the source bounds; pad back to the requested size.
		cropped := imaging.Crop(src.Image(), rect.Bounds().Add(src.Image().Bounds().Min))
		out = imaging.Paste(imaging.New(width, height, image.Transparent), cropped, image.Pt(
			max(0, -int(rect.X)), max(0, -int(rect.Y)),
		))
	} else {
		out = resample(src.Image(), rect, width, height)
	}

	asset, err := c.Encoder.Encode(out)
	if err != nil {
		return RasterAsset{}, fmt.Errorf("failed to export crop of %s: %w", src.Name(), err)
	}
	log.Ctx(ctx).Info().
		Str("filename", src.Name()).
		Stringer("rect", rect).
		Int("width", asset.Width()).
		Int("height", asset.Height()).
		Msg("exported crop")
	return asset, nil
}

// resample maps a fractional rectangle of img onto a width x height surface.
func resample(img image.Image, rect Rect, width, height int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	b := img.Bounds()
	kx := float64(width) / rect.Width
	ky := float64(height) / rect.Height
	s2d := f64.Aff3{
		kx, 0, -kx * (rect.X + float64(b.Min.X)),
		0, ky, -ky * (rect.Y + float64(b.Min.Y)),
	}
	draw.CatmullRom.Transform(dst, s2d, img, b, draw.Src, nil)
	return dst
}
