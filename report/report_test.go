package report

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/gogpu/overdraw"
	"github.com/gogpu/overdraw/history"
)

func TestTextFormat(t *testing.T) {
	r := overdraw.Report{
		DisplayWidth:  1920,
		DisplayHeight: 1080,
		Surfaces: []overdraw.SurfaceReport{
			{
				Name: "Main", Width: 1920, Height: 1080,
				LocalRatio: 2, MaxLocalRatio: 2.5,
				GlobalRatio: 2, MaxGlobalRatio: 2.5,
			},
			{
				Name: "HUD", Width: 640, Height: 360,
				LocalRatio: 1, MaxLocalRatio: 1,
				GlobalRatio: 0.111111, MaxGlobalRatio: 0.111111,
			},
		},
		TotalGlobalRatio:    2.111111,
		MaxTotalGlobalRatio: 2.611111,
	}
	want := "Screen 1920x1080\n\n" +
		"Main 1920x1080  Local: 2.000 / 2.500  Global: 2.000 / 2.500\n" +
		"HUD 640x360  Local: 1.000 / 1.000  Global: 0.111 / 0.111\n" +
		"\n" +
		"Total  Global: 2.111 / 2.611\n"
	if got := Text(r); got != want {
		t.Errorf("Text() =\n%s\nwant\n%s", got, want)
	}
}

func TestTextEmpty(t *testing.T) {
	got := Text(overdraw.Report{})
	want := "Screen 0x0\n\nTotal  Global: 0.000 / 0.000\n"
	if got != want {
		t.Errorf("Text() = %q, want %q", got, want)
	}
}

func TestTextGroupsLargeRatios(t *testing.T) {
	r := overdraw.Report{DisplayWidth: 1, DisplayHeight: 1, TotalGlobalRatio: 1234.5}
	got := NewTextFormatter(language.English).Format(r)
	if !strings.Contains(got, "1,234.500") {
		t.Errorf("Format() = %q, want grouped 1,234.500", got)
	}
}

func TestTextWrite(t *testing.T) {
	var buf bytes.Buffer
	f := NewTextFormatter(language.English)
	if err := f.Write(&buf, overdraw.Report{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Screen 0x0") {
		t.Errorf("Write output = %q", buf.String())
	}
}

func TestLimitForWidth(t *testing.T) {
	tests := []struct{ width, want int }{
		{300, 275},
		{26, 1},
		{25, 0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := LimitForWidth(tt.width); got != tt.want {
			t.Errorf("LimitForWidth(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestStandard(t *testing.T) {
	if got := Standard(history.Total); got != StandardTotal {
		t.Errorf("Standard(Total) = %v", got)
	}
	if got := Standard("Main"); got != StandardSurface {
		t.Errorf("Standard(Main) = %v", got)
	}
}

func series(name string, values ...float64) *history.Series {
	s := history.NewSeries(name, 0)
	for _, v := range values {
		s.Append(v)
	}
	return s
}

func rgba(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestChartColumns(t *testing.T) {
	img, err := Chart([]*history.Series{
		series(history.Total, 1, 5),
		series("Main", 3, 3.5),
	}, 30)
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 2*BandHeight {
		t.Fatalf("bounds = %v", b)
	}

	zero := BandHeight - baseline
	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"total 1x under standard", LeftMargin, zero - 5, ChartUnder},
		{"total 5x over standard", LeftMargin + 1, zero - 5, ChartOver},
		{"total 5x column top", LeftMargin + 1, zero - 5*UnitHeight + 1, ChartOver},
		{"above 1x column", LeftMargin, zero - UnitHeight - 5, ChartBackground},
		{"no sample", LeftMargin + 2, zero - 5, ChartBackground},
		{"guide 1x", LeftMargin + 3, zero - UnitHeight, ChartGuide},
		{"main at standard", LeftMargin, BandHeight + zero - 5, ChartUnder},
		{"main over standard", LeftMargin + 1, BandHeight + zero - 5, ChartOver},
	}
	for _, tt := range tests {
		if got := rgba(img, tt.x, tt.y); got != tt.want {
			t.Errorf("%s: pixel (%d,%d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
}

func TestChartClipsTallColumns(t *testing.T) {
	img, err := Chart([]*history.Series{series("Main", 100)}, 30)
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	if got := rgba(img, LeftMargin, 1); got != ChartOver {
		t.Errorf("top of clipped column = %v, want %v", got, ChartOver)
	}
}

func TestChartDrawsNewestValues(t *testing.T) {
	// Width 30 leaves 5 columns; the first five samples are dropped.
	img, err := Chart([]*history.Series{series("Main", 0, 0, 0, 0, 0, 4, 4, 4, 4, 4)}, 30)
	if err != nil {
		t.Fatalf("Chart: %v", err)
	}
	zero := BandHeight - baseline
	for i := range 5 {
		if got := rgba(img, LeftMargin+i, zero-5); got != ChartOver {
			t.Errorf("column %d = %v, want %v", i, got, ChartOver)
		}
	}
}

func TestChartWidthError(t *testing.T) {
	_, err := Chart(nil, LeftMargin)
	if !errors.Is(err, ErrChartWidth) {
		t.Fatalf("err = %v, want ErrChartWidth", err)
	}
}

func TestWriteChartPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChartPNG(&buf, []*history.Series{series(history.Total, 1, 2, 3)}, 64); err != nil {
		t.Fatalf("WriteChartPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != BandHeight {
		t.Errorf("bounds = %v", b)
	}
}
