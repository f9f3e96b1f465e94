package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
)

// EncodePNG encodes img as PNG, downscaled to fit within maxW×maxH first
// when either bound is >0.
func EncodePNG(img image.Image, maxW, maxH int, level png.CompressionLevel) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("no image provided")
	}
	if maxW > 0 || maxH > 0 {
		img = resizeToFit(img, maxW, maxH)
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNGBase64 is EncodePNG followed by standard base64 encoding.
func EncodePNGBase64(img image.Image, maxW, maxH int, level png.CompressionLevel) (string, error) {
	b, err := EncodePNG(img, maxW, maxH, level)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// resizeToFit scales img to fit within maxW×maxH (keeping aspect ratio). If
// either is 0, the other bounds the size. Images are never upscaled.
func resizeToFit(src image.Image, maxW, maxH int) image.Image {
	bw := src.Bounds().Dx()
	bh := src.Bounds().Dy()

	if (maxW <= 0 && maxH <= 0) || bw == 0 || bh == 0 {
		return src
	}
	if maxW <= 0 {
		scale := float64(maxH) / float64(bh)
		maxW = int(math.Round(float64(bw) * scale))
	}
	if maxH <= 0 {
		scale := float64(maxW) / float64(bw)
		maxH = int(math.Round(float64(bh) * scale))
	}

	scale := math.Min(float64(maxW)/float64(bw), float64(maxH)/float64(bh))
	if scale >= 1.0 {
		return src
	}
	w := int(math.Max(1, math.Round(float64(bw)*scale)))
	h := int(math.Max(1, math.Round(float64(bh)*scale)))

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	// CatmullRom keeps logo edges crisp when shrinking
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}
