package images_test

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonesrussell/stock-publisher/internal/images"
	"github.com/jonesrussell/stock-publisher/internal/logger"
)

func TestRenderProducesDecodablePNG(t *testing.T) {
	gen := images.NewGenerator(images.Config{
		Width:      640,
		Height:     360,
		Background: "#1A2B3C",
		TextColor:  "#FFFFFF",
	}, logger.NewNopLogger())

	outPath := filepath.Join(t.TempDir(), "feature.png")
	got, err := gen.Render("AAPL Stock Forecast (2026-2027)", "Site A", "", outPath)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if got != outPath {
		t.Errorf("Render() path = %q, want %q", got, outPath)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("open rendered image: %v", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("rendered file is not a valid PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 640 || bounds.Dy() != 360 {
		t.Errorf("image size = %dx%d, want 640x360", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderCreatesMissingDirectory(t *testing.T) {
	gen := images.NewGenerator(images.Config{Width: 100, Height: 100}, logger.NewNopLogger())

	outPath := filepath.Join(t.TempDir(), "nested", "dir", "feature.png")
	if _, err := gen.Render("headline", "site", "dark", outPath); err != nil {
		t.Fatalf("Render() into missing directory error: %v", err)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("rendered file missing: %v", err)
	}
}

func TestRenderFallsBackOnBadColors(t *testing.T) {
	gen := images.NewGenerator(images.Config{
		Width:      50,
		Height:     50,
		Background: "chartreuse", // not hex, falls back to default
	}, logger.NewNopLogger())

	if _, err := gen.Render("h", "s", "no-such-theme", filepath.Join(t.TempDir(), "x.png")); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
}
