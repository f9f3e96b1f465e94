package pkpass

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"go-pkpass/archive"
	"go-pkpass/locale"
)

type testFile struct {
	name string
	data []byte
}

func file(name, data string) testFile {
	return testFile{name: name, data: []byte(data)}
}

func buildArchive(t *testing.T, files ...testFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		fw, err := w.Create(f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func buildPass(t *testing.T, manifest string, files ...testFile) []byte {
	t.Helper()
	return buildArchive(t, append([]testFile{file("pass.json", manifest)}, files...)...)
}

func testPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func englishLocale(langs ...string) *locale.Locale {
	return locale.New(language.English, locale.WithLocation(time.UTC), locale.WithUILanguages(langs...))
}

func frenchLocale() *locale.Locale {
	return locale.New(language.French, locale.WithLocation(time.UTC), locale.WithUILanguages("fr-FR"))
}

// loadPass builds a pass bundle around manifest and loads it with an English
// locale unless opts says otherwise.
func loadPass(t *testing.T, manifest string, opts ...Option) *Document {
	t.Helper()
	data := buildPass(t, manifest)
	doc, err := FromBytes(data, append([]Option{WithLocale(englishLocale())}, opts...)...)
	require.NoError(t, err)
	return doc
}

// countingArchive records how often each entry was read.
type countingArchive struct {
	*archive.Archive

	mu    sync.Mutex
	reads map[string]int
}

func newCountingArchive(t *testing.T, data []byte) *countingArchive {
	t.Helper()
	arc, err := archive.Open(data)
	require.NoError(t, err)
	return &countingArchive{Archive: arc, reads: make(map[string]int)}
}

func (c *countingArchive) ReadFile(path string) ([]byte, error) {
	c.mu.Lock()
	c.reads[path]++
	c.mu.Unlock()
	return c.Archive.ReadFile(path)
}

func (c *countingArchive) readCount(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[path]
}
