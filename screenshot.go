package decterm

import (
	"image"
	"image/color"
	"io"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ScreenshotConfig controls how the terminal is rendered to an image.
type ScreenshotConfig struct {
	// Font face to use for rendering. If nil, uses basicfont.Face7x13.
	Font font.Face

	// CellWidth and CellHeight override the cell dimensions.
	// If zero, derived from font metrics.
	CellWidth  int
	CellHeight int

	// ShowCursor controls whether to render the cursor. If nil, the cursor
	// is drawn when DECTCEM is set.
	ShowCursor *bool
}

// LoadFont loads a TrueType or OpenType font from a file path.
func LoadFont(path string, size float64) (font.Face, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadFontFromReader(f, size)
}

// LoadFontFromReader loads a TrueType or OpenType font from an io.Reader.
func LoadFontFromReader(r io.Reader, size float64) (font.Face, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}

	return opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Screenshot renders the terminal to an RGBA image with default settings.
func (t *Terminal) Screenshot() *image.RGBA {
	return t.ScreenshotWithConfig(&ScreenshotConfig{})
}

// ScreenshotWithConfig renders the visible screen to an RGBA image. The
// color precedence per cell is: direct RGB as stored, then palette
// overrides from the OSC color controls, then the default palette.
func (t *Terminal) ScreenshotWithConfig(cfg *ScreenshotConfig) *image.RGBA {
	t.mu.RLock()
	defer t.mu.RUnlock()

	face := cfg.Font
	if face == nil {
		face = basicfont.Face7x13
	}

	cellWidth := cfg.CellWidth
	cellHeight := cfg.CellHeight
	if cellWidth == 0 {
		adv, _ := face.GlyphAdvance('M')
		cellWidth = adv.Ceil()
		if cellWidth == 0 {
			cellWidth = 7
		}
	}
	if cellHeight == 0 {
		cellHeight = face.Metrics().Height.Ceil()
	}

	showCursor := t.modes.Get(ModeDECTCEM, true)
	if cfg.ShowCursor != nil {
		showCursor = *cfg.ShowCursor
	}

	reverseScreen := t.modes.Get(ModeDECSCNM, true)

	imgWidth := t.cols * cellWidth
	imgHeight := t.rows * cellHeight
	img := image.NewRGBA(image.Rect(0, 0, imgWidth, imgHeight))

	bgFill := ResolveColor(nil, t.colors, false)
	if reverseScreen {
		bgFill = ResolveColor(nil, t.colors, true)
	}
	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth; x++ {
			img.Set(x, y, bgFill)
		}
	}

	for row := 0; row < t.rows; row++ {
		for col := 0; col < t.cols; col++ {
			cell := t.active.Cell(row, col)
			if cell == nil || cell.IsWideSpacer() {
				continue
			}

			x := col * cellWidth
			y := row * cellHeight

			fg := ResolveColor(cell.Fg, t.colors, true)
			bg := ResolveColor(cell.Bg, t.colors, false)

			if cell.HasFlag(CellFlagInverse) != reverseScreen {
				fg, bg = bg, fg
			}
			if cell.HasFlag(CellFlagFaint) {
				fg = color.RGBA{
					R: uint8(float64(fg.R) * 0.66),
					G: uint8(float64(fg.G) * 0.66),
					B: uint8(float64(fg.B) * 0.66),
					A: fg.A,
				}
			}
			if cell.HasFlag(CellFlagInvisible) {
				fg = bg
			}

			width := cellWidth
			if cell.IsWide() {
				width = cellWidth * 2
			}
			for py := 0; py < cellHeight; py++ {
				for px := 0; px < width; px++ {
					img.Set(x+px, y+py, bg)
				}
			}

			ch := cell.Char
			if ch == 0 || ch == ' ' {
				continue
			}

			baseline := y + face.Metrics().Ascent.Ceil()
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(fg),
				Face: face,
				Dot:  fixed.P(x, baseline),
			}
			d.DrawString(string(ch) + string(cell.Combining))

			if cell.HasFlag(CellFlagUnderline) || cell.HasFlag(CellFlagDoubleUnderline) {
				underlineY := baseline + 2
				for px := 0; px < width; px++ {
					if underlineY < imgHeight {
						img.Set(x+px, underlineY, fg)
					}
				}
				if cell.HasFlag(CellFlagDoubleUnderline) && underlineY+2 < imgHeight {
					for px := 0; px < width; px++ {
						img.Set(x+px, underlineY+2, fg)
					}
				}
			}
			if cell.HasFlag(CellFlagStrikeout) {
				strikeY := y + cellHeight/2
				for px := 0; px < width; px++ {
					img.Set(x+px, strikeY, fg)
				}
			}
		}
	}

	if showCursor {
		x := t.cursor.Col * cellWidth
		y := t.cursor.Row * cellHeight
		cursorColor := ResolveColor(&NamedColor{Name: NamedColorCursor}, t.colors, true)
		for py := 0; py < cellHeight; py++ {
			for px := 0; px < cellWidth; px++ {
				old := img.RGBAAt(x+px, y+py)
				img.Set(x+px, y+py, color.RGBA{
					R: old.R ^ cursorColor.R,
					G: old.G ^ cursorColor.G,
					B: old.B ^ cursorColor.B,
					A: 255,
				})
			}
		}
	}

	return img
}
