// Package images renders feature images for scheduled posts. Rendering is
// best-effort: a failure here never fails the post, it just publishes
// without a featured image.
package images

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jonesrussell/stock-publisher/internal/logger"
)

// Config controls the rendered image dimensions and default colors. Colors
// are hex strings, 6 or 8 digits (#RRGGBB or #RRGGBBAA).
type Config struct {
	Width          int
	Height         int
	Background     string
	TextColor      string
	WatermarkColor string
}

// themePalettes are the named per-profile color schemes. A profile with no
// theme (or an unknown one) gets the configured defaults.
var themePalettes = map[string]struct{ background, text, watermark string }{
	"dark":  {background: "#1E1E2E", text: "#E0E0E0", watermark: "#55555580"},
	"light": {background: "#FAFAFA", text: "#222222", watermark: "#BBBBBB80"},
	"ocean": {background: "#0B3D5C", text: "#F0F8FF", watermark: "#88AACC80"},
	"mint":  {background: "#E8F5E9", text: "#1B5E20", watermark: "#A5D6A780"},
}

// Generator renders PNG feature images to a temp directory.
type Generator struct {
	cfg    Config
	logger logger.Logger
}

// NewGenerator creates a feature image generator.
func NewGenerator(cfg Config, log logger.Logger) *Generator {
	return &Generator{cfg: cfg, logger: log}
}

// Render draws the headline over the theme's background with the site name
// watermarked in the corner, writes the PNG to outPath and returns it. The
// caller owns the file and removes it after upload.
func (g *Generator) Render(headline, siteName, theme, outPath string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}

	background, text, watermark := g.cfg.Background, g.cfg.TextColor, g.cfg.WatermarkColor
	if p, ok := themePalettes[strings.ToLower(theme)]; ok {
		background, text, watermark = p.background, p.text, p.watermark
	}

	bg := parseHexColor(background, color.NRGBA{R: 0xDD, G: 0xDD, B: 0xDD, A: 0xFF})
	fg := parseHexColor(text, color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xFF})
	wm := parseHexColor(watermark, color.NRGBA{R: 0xAA, G: 0xAA, B: 0xAA, A: 0x80})

	img := image.NewNRGBA(image.Rect(0, 0, g.cfg.Width, g.cfg.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawCentered(img, face, headline, fg, g.cfg.Height/2)
	drawBottomRight(img, face, siteName, wm)

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("encode png: %w", err)
	}

	g.logger.Debug("rendered feature image",
		logger.String("path", outPath),
		logger.String("headline", headline),
	)
	return outPath, nil
}

func drawCentered(img *image.NRGBA, face font.Face, text string, col color.Color, y int) {
	width := font.MeasureString(face, text).Ceil()
	x := (img.Bounds().Dx() - width) / 2
	if x < 10 {
		x = 10
	}
	drawString(img, face, text, col, x, y)
}

func drawBottomRight(img *image.NRGBA, face font.Face, text string, col color.Color) {
	width := font.MeasureString(face, text).Ceil()
	x := img.Bounds().Dx() - width - 10
	y := img.Bounds().Dy() - 10
	drawString(img, face, text, col, x, y)
}

func drawString(img *image.NRGBA, face font.Face, text string, col color.Color, x, y int) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// parseHexColor parses #RRGGBB or #RRGGBBAA, returning fallback on any
// malformed input.
func parseHexColor(s string, fallback color.NRGBA) color.NRGBA {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return fallback
	}
	v, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return fallback
	}
	if len(h) == 6 {
		return color.NRGBA{
			R: uint8(v >> 16),
			G: uint8(v >> 8),
			B: uint8(v),
			A: 0xFF,
		}
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}
}
