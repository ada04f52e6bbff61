package services

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"telecasino-dice/internal/models"
)

const (
	DefaultFrameWidth  = 400
	DefaultFrameHeight = 200
)

// Compositor renders a single animation frame to an image file.
type Compositor interface {
	Render(ctx context.Context, frame models.Frame, outPath string) error
}

// FrameFileName is the staged file name of frame i. Encoders read frames
// back with FramePattern.
func FrameFileName(i int) string {
	return fmt.Sprintf("frame_%03d.png", i)
}

const FramePattern = "frame_%03d.png"

// FaceAssetName is the file name of the SVG drawn for face.
func FaceAssetName(face int) string {
	return fmt.Sprintf("die%d.svg", face)
}

// SVGCompositor draws two die faces side by side on a white canvas, each
// scaled to fit its half while keeping its aspect ratio.
type SVGCompositor struct {
	imagesDir string
	width     int
	height    int
}

func NewSVGCompositor(imagesDir string, width, height int) *SVGCompositor {
	if width <= 0 {
		width = DefaultFrameWidth
	}
	if height <= 0 {
		height = DefaultFrameHeight
	}
	return &SVGCompositor{
		imagesDir: imagesDir,
		width:     width,
		height:    height,
	}
}

// CheckAssets verifies that every face asset exists.
func (c *SVGCompositor) CheckAssets() error {
	for face := models.MinFace; face <= models.MaxFace; face++ {
		path := filepath.Join(c.imagesDir, FaceAssetName(face))
		if _, err := os.Stat(path); err != nil {
			return models.WrapError(models.CodeMissingAsset, fmt.Sprintf("face asset %s", path), err)
		}
	}
	return nil
}

func (c *SVGCompositor) Render(ctx context.Context, frame models.Frame, outPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(c.width, c.height, img, img.Bounds())
	dasher := rasterx.NewDasher(c.width, c.height, scanner)

	halfW := float64(c.width) / 2
	h := float64(c.height)

	for slot, face := range []int{frame.Face1, frame.Face2} {
		icon, err := c.loadFace(face)
		if err != nil {
			return err
		}

		vb := icon.ViewBox
		if vb.W <= 0 || vb.H <= 0 {
			return models.NewError(models.CodeMissingAsset,
				fmt.Sprintf("face asset %s has no usable view box", FaceAssetName(face)))
		}

		scale := math.Min(halfW/vb.W, h/vb.H)
		dw, dh := vb.W*scale, vb.H*scale
		x := float64(slot)*halfW + (halfW-dw)/2
		y := (h - dh) / 2

		icon.SetTarget(x, y, dw, dh)
		icon.Draw(dasher, 1.0)
	}

	return writePNG(outPath, img)
}

func (c *SVGCompositor) loadFace(face int) (*oksvg.SvgIcon, error) {
	if !models.ValidFace(face) {
		return nil, models.NewError(models.CodeInvalidRange, fmt.Sprintf("no asset for face %d", face))
	}

	path := filepath.Join(c.imagesDir, FaceAssetName(face))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, models.WrapError(models.CodeMissingAsset, fmt.Sprintf("missing face asset %s", path), err)
		}
		return nil, models.WrapError(models.CodeResourceUnavailable, fmt.Sprintf("stat face asset %s", path), err)
	}

	// Icons are parsed per render: SetTarget mutates the icon, so a shared
	// copy would race between concurrent rounds.
	icon, err := oksvg.ReadIcon(path, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, models.WrapError(models.CodeMissingAsset, fmt.Sprintf("unreadable face asset %s", path), err)
	}

	return icon, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return models.WrapError(models.CodeResourceUnavailable, "create frame file", err)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return models.WrapError(models.CodeResourceUnavailable, "encode frame", err)
	}

	if err := f.Close(); err != nil {
		return models.WrapError(models.CodeResourceUnavailable, "close frame file", err)
	}

	return nil
}
