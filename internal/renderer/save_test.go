package renderer

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 5, 8))
	for x := 0; x < 5; x++ {
		for y := 0; y < 8; y++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 40), B: uint8(y * 20), A: 255})
		}
	}
	return img
}

// assertNoStrayFiles fails if dir holds anything other than the named files.
func assertNoStrayFiles(t *testing.T, dir string, want ...string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(want) {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Fatalf("directory holds %v, want %v", names, want)
	}
}

func TestSave_PNGRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	src := testImage()

	if err := Save(path, src); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	assertNoStrayFiles(t, dir, "out.png")

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode failed: %v", err)
	}
	if decoded.Bounds() != src.Bounds() {
		t.Fatalf("bounds %v, want %v", decoded.Bounds(), src.Bounds())
	}
	for x := 0; x < 5; x++ {
		for y := 0; y < 8; y++ {
			r, g, b, a := decoded.At(x, y).RGBA()
			want := src.RGBAAt(x, y)
			if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B || uint8(a>>8) != want.A {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, decoded.At(x, y), want)
			}
		}
	}
}

func TestSave_OtherFormats(t *testing.T) {
	dir := t.TempDir()
	src := testImage()

	testCases := []struct {
		name   string
		decode func(*os.File) (image.Image, error)
	}{
		{"out.bmp", func(f *os.File) (image.Image, error) { return bmp.Decode(f) }},
		{"out.tif", func(f *os.File) (image.Image, error) { return tiff.Decode(f) }},
		{"OUT.TIFF", func(f *os.File) (image.Image, error) { return tiff.Decode(f) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			if err := Save(path, src); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			f, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			img, err := tc.decode(f)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 8 {
				t.Errorf("decoded bounds %v", img.Bounds())
			}
		})
	}
}

func TestSave_EmptyImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.png")

	err := Save(path, NewCanvas(0, 2048).Image())
	if !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("error = %v, want ErrEmptyImage", err)
	}
	assertNoStrayFiles(t, dir)
}

func TestSave_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()

	if err := Save(filepath.Join(dir, "out.jpg"), testImage()); err == nil {
		t.Fatal("expected error for .jpg output")
	}
	if err := Save(filepath.Join(dir, "noextension"), testImage()); err == nil {
		t.Fatal("expected error for missing extension")
	}
	assertNoStrayFiles(t, dir)
}

func TestSave_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.png")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Save(path, testImage()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[:4]) != "\x89PNG" {
		t.Errorf("file was not replaced with a PNG")
	}
	assertNoStrayFiles(t, dir, "out.png")
}

func TestSave_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.png")
	if err := Save(path, testImage()); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}

func TestCheckFormat(t *testing.T) {
	for _, ok := range []string{"a.png", "b.PNG", "c.bmp", "d.tif", "e.tiff"} {
		if err := CheckFormat(ok); err != nil {
			t.Errorf("CheckFormat(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"a.jpg", "b.gif", "c"} {
		if err := CheckFormat(bad); err == nil {
			t.Errorf("CheckFormat(%q) accepted", bad)
		}
	}
}
