package pkpass

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
)

// Image asset base names of the pass layout.
const (
	ImageIcon       = "icon"
	ImageLogo       = "logo"
	ImageStrip      = "strip"
	ImageBackground = "background"
	ImageFooter     = "footer"
	ImageThumbnail  = "thumbnail"
)

type imageKey struct {
	name string
	dpr  int
}

type cachedImage struct {
	img image.Image
	dpr int
}

func imageFileName(name string, dpr int) string {
	if dpr == 1 {
		return name + ".png"
	}
	return fmt.Sprintf("%s@%dx.png", name, dpr)
}

// Image returns the decoded asset name at device pixel ratio dpr. Lower
// density variants are used when the requested one is missing. It returns
// nil when no variant exists or the asset cannot be decoded.
//
// Decoded images are cached and shared by every caller of the Document, so
// the returned image must not be modified. Draw a copy to change it.
func (d *Document) Image(name string, dpr int) image.Image {
	img, _ := d.ImageWithRatio(name, dpr)
	return img
}

// ImageWithRatio is Image that also reports the pixel ratio of the asset
// that was used. The image is shared, see Image.
func (d *Document) ImageWithRatio(name string, dpr int) (image.Image, int) {
	if dpr < 1 {
		dpr = 1
	}

	d.imageMu.Lock()
	defer d.imageMu.Unlock()

	for ratio := dpr; ratio >= 1; ratio-- {
		if cached, ok := d.images[imageKey{name, ratio}]; ok {
			d.images[imageKey{name, dpr}] = cached
			return cached.img, cached.dpr
		}

		fileName := imageFileName(name, ratio)
		if !d.archive.Has(fileName) {
			continue
		}

		data, err := d.archive.ReadFile(fileName)
		if err != nil {
			slog.Warn("Failed to read image", "file", fileName, "error", err)
			return nil, 0
		}
		img, err := d.decoder.Decode(data)
		if err != nil {
			slog.Warn("Failed to decode image", "file", fileName, "error", err)
			return nil, 0
		}

		entry := cachedImage{img: img, dpr: ratio}
		d.images[imageKey{name, ratio}] = entry
		d.images[imageKey{name, dpr}] = entry
		slog.Debug("Image loaded", "file", fileName, "requested_dpr", dpr)
		return img, ratio
	}
	return nil, 0
}

// HasImage reports whether any density variant of name is present, without
// decoding it.
func (d *Document) HasImage(name string) bool {
	for _, entry := range d.archive.Entries() {
		if !strings.HasPrefix(entry, name) || !strings.HasSuffix(entry, ".png") {
			continue
		}
		if rest := entry[len(name):]; strings.HasPrefix(rest, "@") || strings.HasPrefix(rest, ".") {
			return true
		}
	}
	return false
}

func (d *Document) Icon(dpr int) image.Image       { return d.Image(ImageIcon, dpr) }
func (d *Document) Logo(dpr int) image.Image       { return d.Image(ImageLogo, dpr) }
func (d *Document) Strip(dpr int) image.Image      { return d.Image(ImageStrip, dpr) }
func (d *Document) Background(dpr int) image.Image { return d.Image(ImageBackground, dpr) }
func (d *Document) Footer(dpr int) image.Image     { return d.Image(ImageFooter, dpr) }
func (d *Document) Thumbnail(dpr int) image.Image  { return d.Image(ImageThumbnail, dpr) }

func (d *Document) HasIcon() bool       { return d.HasImage(ImageIcon) }
func (d *Document) HasLogo() bool       { return d.HasImage(ImageLogo) }
func (d *Document) HasStrip() bool      { return d.HasImage(ImageStrip) }
func (d *Document) HasBackground() bool { return d.HasImage(ImageBackground) }
func (d *Document) HasFooter() bool     { return d.HasImage(ImageFooter) }
func (d *Document) HasThumbnail() bool  { return d.HasImage(ImageThumbnail) }
