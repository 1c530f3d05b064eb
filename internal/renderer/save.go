package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrEmptyImage is returned by Save for images with no pixels, which most
// image formats cannot represent.
var ErrEmptyImage = errors.New("image has no pixels")

type encodeFunc func(w io.Writer, img image.Image) error

var encoders = map[string]encodeFunc{
	".png":  png.Encode,
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// SupportedExts returns the output extensions Save accepts, sorted.
func SupportedExts() []string {
	exts := make([]string, 0, len(encoders))
	for ext := range encoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// CheckFormat reports whether Save can write path, based on its extension.
func CheckFormat(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := encoders[ext]; !ok {
		return fmt.Errorf("unsupported image format %q (supported: %s)",
			ext, strings.Join(SupportedExts(), ", "))
	}
	return nil
}

// Save encodes img in the format implied by path's extension.
// The encoded bytes go to a temporary file next to path which is then
// renamed into place, so a failure never leaves a partial image behind.
func Save(path string, img image.Image) error {
	if err := CheckFormat(path); err != nil {
		return err
	}
	if img.Bounds().Empty() {
		return fmt.Errorf("%w: %dx%d", ErrEmptyImage, img.Bounds().Dx(), img.Bounds().Dy())
	}

	encode := encoders[strings.ToLower(filepath.Ext(path))]
	var buf bytes.Buffer
	if err := encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".spectrograph-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output: %w", err)
	}

	// CreateTemp uses 0600; images are ordinary user files
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set output permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
