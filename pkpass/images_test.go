package pkpass

import (
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"go-pkpass/images"
)

func loadImagePass(t *testing.T, files ...testFile) (*Document, *countingArchive) {
	t.Helper()
	data := buildPass(t, `{"generic": {}}`, files...)
	arc := newCountingArchive(t, data)
	doc, err := fromArchive(arc, data, WithLocale(englishLocale()))
	require.NoError(t, err)
	return doc, arc
}

func TestImage(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	blue := color.NRGBA{B: 0xff, A: 0xff}
	doc, arc := loadImagePass(t,
		testFile{"logo.png", testPNG(t, 2, 1, red)},
		testFile{"logo@2x.png", testPNG(t, 4, 2, blue)},
		testFile{"icon.png", testPNG(t, 3, 3, red)},
	)

	t.Run("exact ratio", func(t *testing.T) {
		img, ratio := doc.ImageWithRatio(ImageLogo, 2)
		require.NotNil(t, img)
		require.Equal(t, 2, ratio)
		require.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
		require.Equal(t, blue, color.NRGBAModel.Convert(img.At(0, 0)))
	})

	t.Run("falls back to lower density", func(t *testing.T) {
		img, ratio := doc.ImageWithRatio(ImageLogo, 3)
		require.NotNil(t, img)
		require.Equal(t, 2, ratio)
		require.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())

		img, ratio = doc.ImageWithRatio(ImageIcon, 3)
		require.NotNil(t, img)
		require.Equal(t, 1, ratio)
		require.Equal(t, red, color.NRGBAModel.Convert(img.At(1, 1)))
	})

	t.Run("ratio below one is treated as one", func(t *testing.T) {
		img, ratio := doc.ImageWithRatio(ImageLogo, 0)
		require.NotNil(t, img)
		require.Equal(t, 1, ratio)
		require.Equal(t, image.Rect(0, 0, 2, 1), img.Bounds())
	})

	t.Run("missing image", func(t *testing.T) {
		img, ratio := doc.ImageWithRatio(ImageStrip, 3)
		require.Nil(t, img)
		require.Zero(t, ratio)
		require.Nil(t, doc.Strip(2))
	})

	t.Run("decoded once", func(t *testing.T) {
		first := doc.Logo(3)
		for i := 0; i < 3; i++ {
			require.Same(t, first, doc.Logo(3))
			require.Same(t, first, doc.Logo(2))
		}
		require.Equal(t, 1, arc.readCount("logo@2x.png"))
		require.Equal(t, 1, arc.readCount("logo.png"))
		require.Equal(t, 1, arc.readCount("icon.png"))
	})

	t.Run("re-encoding leaves the shared image intact", func(t *testing.T) {
		logo := doc.Logo(2)
		_, err := images.EncodePNG(logo, 2, 1, png.BestSpeed)
		require.NoError(t, err)

		again := doc.Logo(2)
		require.Same(t, logo, again)
		require.Equal(t, image.Rect(0, 0, 4, 2), again.Bounds())
		require.Equal(t, blue, color.NRGBAModel.Convert(again.At(3, 1)))
	})
}

func TestImageDecodeFailure(t *testing.T) {
	doc, _ := loadImagePass(t, file("strip.png", "definitely not a png"))
	require.Nil(t, doc.Strip(1))
	require.True(t, doc.HasStrip())
}

type failingDecoder struct{ calls int }

func (d *failingDecoder) Decode([]byte) (image.Image, error) {
	d.calls++
	return nil, image.ErrFormat
}

func TestImageCustomDecoder(t *testing.T) {
	data := buildPass(t, `{"generic": {}}`, testFile{"footer@2x.png", testPNG(t, 1, 1, color.NRGBA{A: 0xff})})
	dec := &failingDecoder{}
	doc, err := FromBytes(data, WithLocale(englishLocale()), WithImageDecoder(dec))
	require.NoError(t, err)

	require.Nil(t, doc.Footer(2))
	require.Equal(t, 1, dec.calls)
}

func TestHasImage(t *testing.T) {
	doc, arc := loadImagePass(t,
		file("icon@2x.png", "x"),
		file("iconic.png", "x"),
		file("logo.jpg", "x"),
		file("thumbnail.png", "x"),
		file("de.lproj/strip.png", "x"),
	)

	require.True(t, doc.HasIcon())
	require.True(t, doc.HasThumbnail())
	require.False(t, doc.HasLogo())
	require.False(t, doc.HasStrip())
	require.False(t, doc.HasBackground())
	require.False(t, doc.HasFooter())
	require.False(t, doc.HasImage("icon@"))
	require.True(t, doc.HasImage("iconic"))

	for _, name := range []string{"icon@2x.png", "iconic.png", "thumbnail.png"} {
		require.Zero(t, arc.readCount(name))
	}
}
