// Package decoder wraps Go's image decoding machinery behind a small
// Decoder interface, so the rest of the tree depends on a capability
// rather than a concrete format list. Mirrors loadable-image.go's
// image.Decode/image.DecodeConfig usage, generalized into an
// interface per the "Decoder (opaque transformation backend)"
// collaborator contract: multiple backends may exist, selection is
// not part of the core.
package decoder

import (
	"bytes"
	"fmt"
	"image"

	// Registered for side effects, same set gui.go/loadable-image.go
	// register plus x/image's wider format coverage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func init() {
	// golang.org/x/image/bmp only registers an encoder by default import;
	// its decoder needs an explicit image.RegisterFormat call.
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}

// Dimensions reports an image's pixel bounds without requiring the
// caller to hold onto a decoded image.Image.
type Dimensions struct {
	Width  int
	Height int
}

// Decoder turns raw archive entry bytes into pixel data, optionally
// scaled to fit within a bounding box. Implementations may wrap any
// underlying image library; the core only depends on this interface.
type Decoder interface {
	// Decode parses raw image bytes into a full-resolution image.Image.
	Decode(data []byte) (image.Image, error)

	// DecodeScaled parses raw image bytes and scales the result to fit
	// within maxW x maxH, preserving aspect ratio. A maxW/maxH of 0
	// disables scaling on that axis.
	DecodeScaled(data []byte, maxW, maxH int) (image.Image, error)

	// DecodeDimensions reads just enough of data's header to report
	// its pixel bounds, without decoding the full image.
	DecodeDimensions(data []byte) (Dimensions, error)
}

// StdDecoder is the default Decoder, backed by the standard library's
// image package plus golang.org/x/image's webp/tiff/bmp registrations.
type StdDecoder struct {
	// Fast selects a lower-quality, higher-throughput scaler
	// (draw.ApproxBiLinear) instead of the default draw.CatmullRom,
	// mirroring GetScalingMethod's fast/quality tradeoff.
	Fast bool
}

// New returns a StdDecoder using the high-quality scaler.
func New() *StdDecoder {
	return &StdDecoder{}
}

func (d *StdDecoder) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoder: decode: %w", err)
	}
	return img, nil
}

func (d *StdDecoder) DecodeDimensions(data []byte) (Dimensions, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Dimensions{}, fmt.Errorf("decoder: decode config: %w", err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

func (d *StdDecoder) DecodeScaled(data []byte, maxW, maxH int) (image.Image, error) {
	img, err := d.Decode(data)
	if err != nil {
		return nil, err
	}
	if maxW <= 0 && maxH <= 0 {
		return img, nil
	}

	bounds := fitBounds(img.Bounds(), maxW, maxH)
	if bounds == img.Bounds() {
		return img, nil
	}

	dst := image.NewRGBA(bounds)
	scaler := d.scalingMethod()
	scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

func (d *StdDecoder) scalingMethod() draw.Scaler {
	if d.Fast {
		return draw.ApproxBiLinear
	}
	return draw.CatmullRom
}

// fitBounds scales img down to fit within maxW x maxH, preserving
// aspect ratio. It never scales up: if img already fits, its own
// bounds are returned unchanged. Mirrors CalculateImageBounds.
func fitBounds(img image.Rectangle, maxW, maxH int) image.Rectangle {
	w, h := img.Dx(), img.Dy()
	if w <= 0 || h <= 0 {
		return img
	}

	nw, nh := w, h
	scale := 1.0
	if maxW > 0 && w > maxW {
		if s := float64(maxW) / float64(w); s < scale {
			scale = s
		}
	}
	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}
	if scale < 1.0 {
		nw = int(scale * float64(w))
		nh = int(scale * float64(h))
	}

	return image.Rectangle{Max: image.Point{X: nw, Y: nh}}
}
