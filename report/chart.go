package report

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/overdraw/history"
)

// Chart geometry in pixels.
const (
	// BandHeight is the height of one series band.
	BandHeight = 150

	// UnitHeight is the column height of a ratio of 1.
	UnitHeight = 20

	// LeftMargin is the space reserved for guide labels.
	LeftMargin = 25

	// baseline is the distance from the band bottom to the zero line.
	baseline = 10

	guideCount = 5
)

// Standards are the ratios above which a column is drawn red.
const (
	StandardTotal   = 4
	StandardSurface = 3
)

// ErrChartWidth is returned when the chart has no room for columns.
var ErrChartWidth = errors.New("report: chart width must exceed the label margin")

// Chart colors.
var (
	ChartBackground = color.RGBA{R: 24, G: 24, B: 24, A: 255}
	ChartGuide      = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	ChartLabel      = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	ChartOver       = color.RGBA{R: 230, G: 40, B: 40, A: 255}
	ChartUnder      = color.RGBA{R: 40, G: 200, B: 70, A: 255}
)

// LimitForWidth returns the history limit that fills a chart of the given
// width with one column per sample.
func LimitForWidth(width int) int {
	return max(width-LeftMargin, 0)
}

// Standard returns the red threshold of the named series.
func Standard(name string) float64 {
	if name == history.Total {
		return StandardTotal
	}
	return StandardSurface
}

var (
	labelFontOnce sync.Once
	labelFont     *opentype.Font
	labelFontErr  error
)

// newLabelFace returns a face for chart labels. Faces are not safe for
// concurrent use, so each chart gets its own.
func newLabelFace() (font.Face, error) {
	labelFontOnce.Do(func() {
		labelFont, labelFontErr = opentype.Parse(goregular.TTF)
	})
	if labelFontErr != nil {
		return nil, fmt.Errorf("report: parse label font: %w", labelFontErr)
	}
	face, err := opentype.NewFace(labelFont, &opentype.FaceOptions{
		Size:    11,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("report: label face: %w", err)
	}
	return face, nil
}

// Chart draws one band per series, top to bottom in slice order.
// Only the newest LimitForWidth(width) values of each series are drawn.
func Chart(series []*history.Series, width int) (*image.RGBA, error) {
	if width <= LeftMargin {
		return nil, fmt.Errorf("%w: %d", ErrChartWidth, width)
	}
	face, err := newLabelFace()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = face.Close()
	}()

	height := max(len(series), 1) * BandHeight
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(ChartBackground), image.Point{}, draw.Src)

	ras := vector.NewRasterizer(width, height)
	for band, s := range series {
		top := band * BandHeight
		zero := float32(top + BandHeight - baseline)

		for g := 1; g <= guideCount; g++ {
			y := zero - float32(g*UnitHeight)
			addRect(ras, LeftMargin, y, float32(width), y+1)
		}
		fill(ras, img, ChartGuide)

		values := s.Values()
		if n := LimitForWidth(width); len(values) > n {
			values = values[len(values)-n:]
		}
		std := Standard(s.Name())
		var over, under []int
		for i, v := range values {
			if v > std {
				over = append(over, i)
			} else {
				under = append(under, i)
			}
		}
		for _, group := range []struct {
			cols []int
			c    color.Color
		}{{over, ChartOver}, {under, ChartUnder}} {
			for _, i := range group.cols {
				h := columnHeight(values[i])
				if h <= 0 {
					continue
				}
				x := float32(LeftMargin + i)
				addRect(ras, x, zero-h, x+1, zero)
			}
			fill(ras, img, group.c)
		}

		d := &font.Drawer{Dst: img, Src: image.NewUniform(ChartLabel), Face: face}
		for g := 1; g <= guideCount; g++ {
			d.Dot = fixed.P(2, int(zero)-g*UnitHeight+4)
			d.DrawString(fmt.Sprintf("%dx", g))
		}
		d.Dot = fixed.P(LeftMargin, top+12)
		d.DrawString(s.Name())
	}
	return img, nil
}

// WriteChartPNG encodes Chart(series, width) as PNG.
func WriteChartPNG(w io.Writer, series []*history.Series, width int) error {
	img, err := Chart(series, width)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("report: encode chart: %w", err)
	}
	return nil
}

// columnHeight converts a ratio to pixels, clipped to the band.
func columnHeight(v float64) float32 {
	if v <= 0 {
		return 0
	}
	return float32(min(v*UnitHeight, BandHeight-baseline))
}

func addRect(ras *vector.Rasterizer, x0, y0, x1, y1 float32) {
	ras.MoveTo(x0, y0)
	ras.LineTo(x1, y0)
	ras.LineTo(x1, y1)
	ras.LineTo(x0, y1)
	ras.ClosePath()
}

// fill paints the accumulated path and resets the rasterizer.
func fill(ras *vector.Rasterizer, img *image.RGBA, c color.Color) {
	b := img.Bounds()
	ras.Draw(img, b, image.NewUniform(c), image.Point{})
	ras.Reset(b.Dx(), b.Dy())
}
