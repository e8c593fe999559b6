package report

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/overdraw"
)

// TextFormatter formats reports with locale-aware number grouping.
type TextFormatter struct {
	p *message.Printer
}

// NewTextFormatter returns a formatter for tag.
func NewTextFormatter(tag language.Tag) *TextFormatter {
	return &TextFormatter{p: message.NewPrinter(tag)}
}

// Format returns r as text. Ratios have three decimals.
func (f *TextFormatter) Format(r overdraw.Report) string {
	var b strings.Builder
	f.p.Fprintf(&b, "Screen %s\n\n", size(r.DisplayWidth, r.DisplayHeight))
	for _, s := range r.Surfaces {
		f.p.Fprintf(&b, "%s %s  Local: %.3f / %.3f  Global: %.3f / %.3f\n",
			s.Name, size(s.Width, s.Height),
			s.LocalRatio, s.MaxLocalRatio,
			s.GlobalRatio, s.MaxGlobalRatio)
	}
	if len(r.Surfaces) > 0 {
		b.WriteByte('\n')
	}
	f.p.Fprintf(&b, "Total  Global: %.3f / %.3f\n", r.TotalGlobalRatio, r.MaxTotalGlobalRatio)
	return b.String()
}

// Write writes the formatted report to w.
func (f *TextFormatter) Write(w io.Writer, r overdraw.Report) error {
	_, err := io.WriteString(w, f.Format(r))
	return err
}

// size formats pixel dimensions without digit grouping.
func size(w, h int) string {
	return strconv.Itoa(w) + "x" + strconv.Itoa(h)
}

var defaultFormatter = NewTextFormatter(language.English)

// Text formats r with English number grouping.
func Text(r overdraw.Report) string {
	return defaultFormatter.Format(r)
}
