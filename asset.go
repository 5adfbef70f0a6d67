package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
)

type Encoding string

const (
	EncodingJPEG Encoding = "jpeg"
	EncodingPNG  Encoding = "png"
	EncodingWebP Encoding = "webp"
	// EncodingTGA only appears on uploads kept as they were received.
	EncodingTGA Encoding = "tga"
)

func (e Encoding) ContentType() string {
	if e == EncodingTGA {
		return "image/x-tga"
	}
	return "image/" + string(e)
}

func (e Encoding) Ext() string {
	if e == EncodingJPEG {
		return ".jpg"
	}
	return "." + string(e)
}

func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(s) {
	case "jpeg", "jpg":
		return EncodingJPEG, nil
	case "png":
		return EncodingPNG, nil
	case "webp":
		return EncodingWebP, nil
	}
	return "", fmt.Errorf("unknown encoding %q", s)
}

// RasterAsset is an encoded still image. It holds no reference to decoded
// pixels and is never modified after creation; edits produce new assets.
type RasterAsset struct {
	data     []byte
	encoding Encoding
	width    int
	height   int
}

// NewRasterAsset wraps already encoded bytes, reading the pixel size from the
// image header.
func NewRasterAsset(data []byte) (RasterAsset, error) {
	cfg, format, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return RasterAsset{}, fmt.Errorf("failed to read image header: %w", err)
	}
	return RasterAsset{
		data:     bytes.Clone(data),
		encoding: Encoding(format),
		width:    cfg.Width,
		height:   cfg.Height,
	}, nil
}

func (a RasterAsset) IsZero() bool      { return len(a.data) == 0 }
func (a RasterAsset) Encoding() Encoding { return a.encoding }
func (a RasterAsset) Width() int         { return a.width }
func (a RasterAsset) Height() int        { return a.height }
func (a RasterAsset) Len() int           { return len(a.data) }

func (a RasterAsset) ContentType() string {
	return a.encoding.ContentType()
}

// Clone returns a copy that shares no memory with a.
func (a RasterAsset) Clone() RasterAsset {
	a.data = bytes.Clone(a.data)
	return a
}

// Bytes returns a copy of the encoded data.
func (a RasterAsset) Bytes() []byte {
	return bytes.Clone(a.data)
}

func (a RasterAsset) Equal(b RasterAsset) bool {
	return a.encoding == b.encoding && bytes.Equal(a.data, b.data)
}

func (a RasterAsset) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.data)
	return int64(n), err
}

func (a RasterAsset) Decode() (image.Image, error) {
	if a.IsZero() {
		return nil, ErrInputNotReady
	}
	img, _, err := decodeImage(bytes.NewReader(a.data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode asset: %w", err)
	}
	return img, nil
}

func (a RasterAsset) DataURL() string {
	return "data:" + a.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(a.data)
}

func (a RasterAsset) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(a.DataURL())
}

func (a *RasterAsset) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("failed to unmarshal asset: %w", err)
	}
	if s == nil || *s == "" {
		*a = RasterAsset{}
		return nil
	}
	rest, ok := strings.CutPrefix(*s, "data:")
	if !ok {
		return fmt.Errorf("asset is not a data URL")
	}
	_, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return fmt.Errorf("asset data URL is not base64 encoded")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("failed to decode asset data: %w", err)
	}
	decoded, err := NewRasterAsset(raw)
	if err != nil {
		return err
	}
	*a = decoded
	return nil
}

// Encoder turns a finished surface into a RasterAsset. Quality only applies
// to JPEG; WebP output is lossless.
type Encoder struct {
	Format  Encoding
	Quality int
}

func DefaultEncoder() Encoder {
	return Encoder{Format: EncodingJPEG, Quality: 95}
}

func (e Encoder) Encode(img image.Image) (RasterAsset, error) {
	var b bytes.Buffer
	var err error
	switch e.Format {
	case EncodingJPEG, "":
		q := e.Quality
		if q <= 0 || q > 100 {
			q = 95
		}
		err = imaging.Encode(&b, img, imaging.JPEG, imaging.JPEGQuality(q))
	case EncodingPNG:
		err = imaging.Encode(&b, img, imaging.PNG)
	case EncodingWebP:
		err = nativewebp.Encode(&b, img, nil)
	default:
		err = fmt.Errorf("unknown encoding %q", e.Format)
	}
	if err != nil {
		return RasterAsset{}, fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	format := e.Format
	if format == "" {
		format = EncodingJPEG
	}
	bounds := img.Bounds()
	return RasterAsset{
		data:     b.Bytes(),
		encoding: format,
		width:    bounds.Dx(),
		height:   bounds.Dy(),
	}, nil
}
