package main

import (
	"crypto/md5"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog/log"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the size has no area, e.g. an image queried before layout.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Rect is a rectangle in either display pixels or native image pixels. Which
// space it lives in is decided by whoever produced it.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Integral reports whether all four fields are whole numbers.
func (r Rect) Integral() bool {
	for _, v := range []float64{r.X, r.Y, r.Width, r.Height} {
		if v != math.Trunc(v) {
			return false
		}
	}
	return true
}

// Bounds rounds the rectangle onto the pixel grid.
func (r Rect) Bounds() image.Rectangle {
	x := int(math.Round(r.X))
	y := int(math.Round(r.Y))
	return image.Rect(x, y, x+int(math.Round(r.Width)), y+int(math.Round(r.Height)))
}

func (r Rect) String() string {
	return fmt.Sprintf("rect(x=%.2f,y=%.2f,w=%.2f,h=%.2f)", r.X, r.Y, r.Width, r.Height)
}

func (r Rect) ID() string {
	m := md5.New()
	_, err := m.Write([]byte(r.String()))
	if err != nil {
		log.Error().Err(err).Msg("failed to hash rect string")
		return ""
	}
	return fmt.Sprintf("%x", m.Sum(nil))
}

// ToNativeRect converts a rectangle drawn over an image rendered at display size
// into the image's native pixel grid. Each axis is scaled independently by
// native/display. display must be the rendered box of the image itself, not of
// its container. If display has no area the rectangle is returned unchanged.
func ToNativeRect(r Rect, display, native Size) Rect {
	if display.Empty() {
		return r
	}
	scaleX := native.Width / display.Width
	scaleY := native.Height / display.Height
	return Rect{
		X:      r.X * scaleX,
		Y:      r.Y * scaleY,
		Width:  r.Width * scaleX,
		Height: r.Height * scaleY,
	}
}
