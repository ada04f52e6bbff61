package services_test

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"telecasino-dice/internal/models"
	"telecasino-dice/internal/services"
)

const testFaceSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" width="100" height="100">
<rect x="10" y="10" width="80" height="80" fill="#000000"/>
</svg>`

func writeFaceAssets(t *testing.T, dir string, faces ...int) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, f := range faces {
		path := filepath.Join(dir, fmt.Sprintf("die%d.svg", f))
		if err := os.WriteFile(path, []byte(testFaceSVG), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSVGCompositorRendersFrame(t *testing.T) {
	images := filepath.Join(t.TempDir(), "images")
	writeFaceAssets(t, images, 1, 2, 3, 4, 5, 6)

	c := services.NewSVGCompositor(images, 400, 200)
	if err := c.CheckAssets(); err != nil {
		t.Fatalf("CheckAssets failed: %v", err)
	}

	out := filepath.Join(t.TempDir(), services.FrameFileName(0))
	if err := c.Render(context.Background(), models.Frame{Face1: 2, Face2: 5}, out); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("frame size = %dx%d, want 400x200", b.Dx(), b.Dy())
	}

	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 < 250 {
		t.Errorf("corner should be white, red channel %d", r>>8)
	}
	for _, x := range []int{100, 300} {
		if r, _, _, _ := img.At(x, 100).RGBA(); r>>8 > 5 {
			t.Errorf("die center at x=%d should be black, red channel %d", x, r>>8)
		}
	}
}

func TestSVGCompositorMissingAsset(t *testing.T) {
	images := filepath.Join(t.TempDir(), "images")
	writeFaceAssets(t, images, 1, 2, 3)

	c := services.NewSVGCompositor(images, 400, 200)
	if err := c.CheckAssets(); !errors.Is(err, models.ErrMissingAsset) {
		t.Errorf("CheckAssets error = %v, want ErrMissingAsset", err)
	}

	out := filepath.Join(t.TempDir(), "frame.png")
	err := c.Render(context.Background(), models.Frame{Face1: 1, Face2: 6}, out)
	if !errors.Is(err, models.ErrMissingAsset) {
		t.Fatalf("Render error = %v, want ErrMissingAsset", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no frame should be written when an asset is missing")
	}
}

func TestSVGCompositorUnwritableOutput(t *testing.T) {
	images := filepath.Join(t.TempDir(), "images")
	writeFaceAssets(t, images, 1)

	c := services.NewSVGCompositor(images, 400, 200)
	out := filepath.Join(t.TempDir(), "missing-dir", "frame.png")

	err := c.Render(context.Background(), models.Frame{Face1: 1, Face2: 1}, out)
	if !errors.Is(err, models.ErrResourceUnavailable) {
		t.Fatalf("Render error = %v, want ErrResourceUnavailable", err)
	}
}
