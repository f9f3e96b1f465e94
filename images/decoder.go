package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	xdraw "golang.org/x/image/draw"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

// ErrNotPNG is returned for data that does not start with a PNG signature.
var ErrNotPNG = errors.New("data is not a PNG image")

// PNGDecoder decodes PNG image assets into NRGBA pixel buffers.
type PNGDecoder struct{}

// Decode decodes data as a PNG and returns a non-premultiplied RGBA buffer
// with its origin at (0, 0), independent of the color model stored in the file.
func (PNGDecoder) Decode(data []byte) (image.Image, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, ErrNotPNG
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		slog.Debug("Failed to decode PNG", "data_size", len(data), "error", err)
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba, nil
	}

	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	slog.Debug("Image decoded", "width", b.Dx(), "height", b.Dy())
	return dst, nil
}
