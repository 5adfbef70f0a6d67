package main

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// The tga package registers itself with an empty magic string, which matches
// any input, and it initialises before image/png and image/jpeg. Every decode
// in this package therefore goes through decodeImage and decodeConfig, which
// sniff the registered formats with magicReader and only try TGA last.

var errNoMagic = errors.New("format has no magic number")

// magicReader refuses zero-length peeks so image.Decode skips formats
// registered without a magic number.
type magicReader struct {
	*bufio.Reader
}

func (r magicReader) Peek(n int) ([]byte, error) {
	if n == 0 {
		return nil, errNoMagic
	}
	return r.Reader.Peek(n)
}

func decodeImage(r io.ReadSeeker) (image.Image, string, error) {
	img, format, err := image.Decode(magicReader{bufio.NewReader(r)})
	if !errors.Is(err, image.ErrFormat) {
		return img, format, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, "", err
	}
	img, err = tga.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", image.ErrFormat, err)
	}
	return img, string(EncodingTGA), nil
}

func decodeConfig(r io.ReadSeeker) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(magicReader{bufio.NewReader(r)})
	if !errors.Is(err, image.ErrFormat) {
		return cfg, format, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return image.Config{}, "", err
	}
	cfg, err = tga.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %w", image.ErrFormat, err)
	}
	return cfg, string(EncodingTGA), nil
}

// decodeOriented decodes data and applies the EXIF orientation of JPEG input.
func decodeOriented(data []byte) (image.Image, error) {
	img, format, err := decodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if format == string(EncodingJPEG) {
		img = orient(img, jpegOrientation(data))
	}
	return img, nil
}

const exifOrientationTag = 0x0112

// jpegOrientation returns the EXIF orientation (1-8) of a JPEG, or 1 when the
// tag is missing or unreadable.
func jpegOrientation(data []byte) int {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 1
	}
	for i := 2; i+4 <= len(data); {
		if data[i] != 0xFF {
			return 1
		}
		marker := data[i+1]
		size := int(binary.BigEndian.Uint16(data[i+2:]))
		// EXIF comes before the scan data.
		if marker == 0xDA || size < 2 || i+2+size > len(data) {
			return 1
		}
		segment := data[i+4 : i+2+size]
		if marker == 0xE1 && bytes.HasPrefix(segment, []byte("Exif\x00\x00")) {
			return exifOrientation(segment[6:])
		}
		i += 2 + size
	}
	return 1
}

func exifOrientation(tiff []byte) int {
	if len(tiff) < 8 {
		return 1
	}
	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 1
	}
	ifd := int(order.Uint32(tiff[4:]))
	if ifd < 8 || ifd+2 > len(tiff) {
		return 1
	}
	entries := int(order.Uint16(tiff[ifd:]))
	for k := 0; k < entries; k++ {
		e := ifd + 2 + 12*k
		if e+12 > len(tiff) {
			return 1
		}
		if order.Uint16(tiff[e:]) != exifOrientationTag {
			continue
		}
		if o := int(order.Uint16(tiff[e+8:])); o >= 1 && o <= 8 {
			return o
		}
		return 1
	}
	return 1
}

func orient(img image.Image, o int) image.Image {
	switch o {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
