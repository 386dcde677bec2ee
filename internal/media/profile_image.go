// Package media stores user profile images.
package media

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned for files whose extension is not an
// allowed image type.
var ErrUnsupportedFormat = errors.New("unsupported image format")

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// Extension returns the lower-cased extension of filename if it is allowed.
func Extension(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedFormat
	}
	return ext, nil
}

// ProfileImages writes square thumbnails into a directory.
type ProfileImages struct {
	dir  string
	size int
}

// NewProfileImages returns a store rooted at dir producing size×size images.
func NewProfileImages(dir string, size int) *ProfileImages {
	if size <= 0 {
		size = 200
	}
	return &ProfileImages{dir: dir, size: size}
}

// Dir is the directory images are written to.
func (p *ProfileImages) Dir() string {
	return p.dir
}

// Save decodes src, fits it to the configured square and writes it as
// user_<id>.<ext>. The stored file name is returned.
func (p *ProfileImages) Save(userID, filename string, src io.Reader) (string, error) {
	ext, err := Extension(filename)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(src)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	thumb := Fit(img, p.size, p.size)

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	name := fmt.Sprintf("user_%s.%s", userID, ext)
	tmp, err := os.CreateTemp(p.dir, name+".*")
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := encode(tmp, thumb, ext); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(p.dir, name)); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return name, nil
}

// Fit scales img to cover width×height and crops the centre.
func Fit(img image.Image, width, height int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	crop := b
	// Compare aspect ratios without floats: srcW/srcH vs width/height.
	if srcW*height > srcH*width {
		w := srcH * width / height
		x0 := b.Min.X + (srcW-w)/2
		crop = image.Rect(x0, b.Min.Y, x0+w, b.Max.Y)
	} else if srcW*height < srcH*width {
		h := srcW * height / width
		y0 := b.Min.Y + (srcH-h)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Over, nil)
	return dst
}

func encode(w io.Writer, img image.Image, ext string) error {
	switch ext {
	case "png":
		return png.Encode(w, img)
	case "jpg", "jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case "gif":
		return gif.Encode(w, img, nil)
	}
	return ErrUnsupportedFormat
}
