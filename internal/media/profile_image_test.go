package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 80, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtension(t *testing.T) {
	ext, err := Extension("Avatar.JPEG")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", ext)

	_, err = Extension("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = Extension("noext")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 100))
	out := Fit(src, 200, 200)
	assert.Equal(t, image.Rect(0, 0, 200, 200), out.Bounds())

	tall := image.NewRGBA(image.Rect(10, 10, 60, 310))
	out = Fit(tall, 200, 200)
	assert.Equal(t, 200, out.Bounds().Dx())
}

func TestProfileImages_Save(t *testing.T) {
	dir := t.TempDir()
	store := NewProfileImages(dir, 200)

	name, err := store.Save("42", "me.png", bytes.NewReader(pngBytes(t, 320, 240)))
	require.NoError(t, err)
	assert.Equal(t, "user_42.png", name)

	f, err := os.Open(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 200, cfg.Height)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestProfileImages_SaveRejects(t *testing.T) {
	store := NewProfileImages(t.TempDir(), 200)

	_, err := store.Save("1", "me.bmp", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = store.Save("1", "me.png", strings.NewReader("not an image"))
	assert.Error(t, err)
}
