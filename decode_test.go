package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func encodeTGA(t *testing.T, w, h int) []byte {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, tga.Encode(&b, gradient(w, h)))
	return b.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var b bytes.Buffer
	require.NoError(t, jpeg.Encode(&b, gradient(w, h), &jpeg.Options{Quality: 90}))
	return b.Bytes()
}

// withOrientation inserts an EXIF APP1 segment carrying only the orientation
// tag right after the SOI marker.
func withOrientation(jpg []byte, orientation uint16) []byte {
	var ifd bytes.Buffer
	ifd.WriteString("MM\x00\x2a")
	binary.Write(&ifd, binary.BigEndian, uint32(8))
	binary.Write(&ifd, binary.BigEndian, uint16(1))
	binary.Write(&ifd, binary.BigEndian, []uint16{exifOrientationTag, 3})
	binary.Write(&ifd, binary.BigEndian, uint32(1))
	binary.Write(&ifd, binary.BigEndian, []uint16{orientation, 0})
	binary.Write(&ifd, binary.BigEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), ifd.Bytes()...)
	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpg[2:])
	return out.Bytes()
}

func TestDecodeKeepsRegisteredFormatsAheadOfTGA(t *testing.T) {
	png, err := NewRasterAsset(encodePNG(t, gradient(30, 20)))
	require.NoError(t, err)
	assert.Equal(t, EncodingPNG, png.Encoding())
	assert.Equal(t, 30, png.Width())

	jpg, err := NewRasterAsset(encodeJPEG(t, 30, 20))
	require.NoError(t, err)
	assert.Equal(t, EncodingJPEG, jpg.Encoding())

	img, err := jpg.Decode()
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
	assert.Equal(t, 20, img.Bounds().Dy())
}

func TestDecodeSourceTGA(t *testing.T) {
	src, err := DecodeSource(context.Background(), bytes.NewReader(encodeTGA(t, 12, 8)), "scan.tga")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 12, Height: 8}, src.Native())
	assert.Equal(t, gradient(12, 8).NRGBAAt(3, 5), nrgbaAt(src.Image(), 3, 5))

	original := src.Original()
	assert.Equal(t, EncodingTGA, original.Encoding())
	assert.Equal(t, "image/x-tga", original.ContentType())
	assert.Equal(t, 12, original.Width())

	asset, err := NewImagingCropper(pngEncoder).Export(context.Background(), src, Rect{X: 2, Y: 2, Width: 6, Height: 4})
	require.NoError(t, err)
	assert.Equal(t, EncodingPNG, asset.Encoding())
	assert.Equal(t, 6, asset.Width())
}

func TestDecodeSourceTIFF(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, tiff.Encode(&b, gradient(20, 10), nil))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scan.tif"), b.Bytes(), 0644))

	listed, err := walkImages(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, listed.Files, 1)
	assert.Equal(t, ImageInfo{Width: 20, Height: 10}, listed.Files[0].Image)

	f, err := openLibraryFile(dir, "scan.tif")
	require.NoError(t, err)
	defer f.Close()
	src, err := DecodeSource(context.Background(), f, "scan.tif")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 20, Height: 10}, src.Native())
}

func TestDecodeSourceAppliesOrientation(t *testing.T) {
	plain := encodeJPEG(t, 40, 20)
	assert.Equal(t, 1, jpegOrientation(plain))

	rotated := withOrientation(plain, 6)
	assert.Equal(t, 6, jpegOrientation(rotated))

	src, err := DecodeSource(context.Background(), bytes.NewReader(rotated), "phone.jpg")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 20, Height: 40}, src.Native())

	src, err = DecodeSource(context.Background(), bytes.NewReader(plain), "camera.jpg")
	require.NoError(t, err)
	assert.Equal(t, Size{Width: 40, Height: 20}, src.Native())
}

func TestWebPExportAndComposite(t *testing.T) {
	webp := Encoder{Format: EncodingWebP}
	src := testSource(t, 100, 80)

	crop, err := NewImagingCropper(webp).Export(context.Background(), src, Rect{X: 5, Y: 5, Width: 30, Height: 20})
	require.NoError(t, err)
	assert.Equal(t, EncodingWebP, crop.Encoding())

	read, err := NewRasterAsset(crop.Bytes())
	require.NoError(t, err)
	assert.Equal(t, EncodingWebP, read.Encoding())
	assert.Equal(t, 30, read.Width())
	assert.Equal(t, 20, read.Height())

	out, err := NewCompositor(webp).Composite(context.Background(), read, NeutralAdjustments())
	require.NoError(t, err)
	edited, err := NewRasterAsset(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, EncodingWebP, edited.Encoding())
	assert.Equal(t, 30, edited.Width())
	assert.Equal(t, 20, edited.Height())
	assert.Equal(t, nrgbaAt(src.Image(), 5, 5), nrgbaAt(decodeAsset(t, edited), 0, 0))
}
