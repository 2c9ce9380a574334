package charts

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ticketdash/pkg/contracts/domain"
)

// Kind names a chart.
type Kind string

const (
	KindSLA       Kind = "sla"
	KindTypeShift Kind = "type-shift"
	KindPriority  Kind = "priority"
	KindType      Kind = "type"
	KindMonthly   Kind = "monthly"
)

var (
	// ErrNoData is returned when the summary has nothing to plot.
	ErrNoData = errors.New("no data to chart")
	// ErrUnknownKind is returned for an unrecognized chart name.
	ErrUnknownKind = errors.New("unknown chart kind")
)

// Kinds lists every chart in dashboard order.
func Kinds() []Kind {
	return []Kind{KindSLA, KindTypeShift, KindPriority, KindType, KindMonthly}
}

// ParseKind validates a chart name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Title returns the heading shown above the chart.
func (k Kind) Title() string {
	switch k {
	case KindSLA:
		return "SLA Status"
	case KindTypeShift:
		return "Ticket Type by Shift"
	case KindPriority:
		return "Tickets by Priority"
	case KindType:
		return "Tickets by Type"
	case KindMonthly:
		return "Tickets by Month"
	}
	return string(k)
}

// HasData reports whether s has anything to plot for kind.
func HasData(kind Kind, s domain.Summary) bool {
	switch kind {
	case KindSLA:
		return len(s.ByResolutionStatus) > 0
	case KindTypeShift:
		return len(s.ByTypeAndShift) > 0
	case KindPriority:
		return len(s.ByPriority) > 0
	case KindType:
		return len(s.ByTicketType) > 0
	case KindMonthly:
		return len(s.ByCreatedMonth) > 0
	}
	return false
}

// Fixed colors for well-known categories.
var (
	colorWithinSLA   = drawing.ColorFromHex("0FA958")
	colorViolated    = drawing.ColorFromHex("E02020")
	colorWithinShift = drawing.ColorFromHex("007BFF")
	colorAfterShift  = drawing.ColorFromHex("FF8C00")

	palette = []drawing.Color{
		drawing.ColorFromHex("6F42C1"),
		drawing.ColorFromHex("20C997"),
		drawing.ColorFromHex("FFC107"),
		drawing.ColorFromHex("17A2B8"),
		drawing.ColorFromHex("E83E8C"),
		drawing.ColorFromHex("6C757D"),
	}
)

var categoryColors = map[string]drawing.Color{
	"Within SLA":   colorWithinSLA,
	"SLA Violated": colorViolated,
	"Within Shift": colorWithinShift,
	"After Shift":  colorAfterShift,
}

func colorFor(label string, i int) drawing.Color {
	if c, ok := categoryColors[label]; ok {
		return c
	}
	return palette[i%len(palette)]
}

// Options sizes rendered images.
type Options struct {
	Width  int
	Height int
}

// Renderer draws summary charts.
type Renderer struct {
	width  int
	height int
	logger *slog.Logger
}

// NewRenderer creates a Renderer. Zero sizes default to 800x400.
func NewRenderer(opts Options, logger *slog.Logger) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 400
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		width:  opts.Width,
		height: opts.Height,
		logger: logger.With(slog.String("component", "charts")),
	}
}

// Render writes the PNG for kind to w.
func (r *Renderer) Render(w io.Writer, kind Kind, s domain.Summary) error {
	var err error
	switch kind {
	case KindSLA:
		err = r.pie(w, kind, s.ByResolutionStatus)
	case KindTypeShift:
		err = r.stacked(w, kind, s.ByTypeAndShift)
	case KindPriority:
		err = r.bars(w, kind, s.ByPriority)
	case KindType:
		err = r.bars(w, kind, s.ByTicketType)
	case KindMonthly:
		err = r.bars(w, kind, s.ByCreatedMonth)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if err != nil && !errors.Is(err, ErrNoData) {
		r.logger.Error("chart render failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()))
	}
	return err
}

// label names the empty category.
func label(s string) string {
	if s == "" {
		return "(blank)"
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Renderer) pie(w io.Writer, kind Kind, counts map[string]int) error {
	if len(counts) == 0 {
		return ErrNoData
	}

	var values []chart.Value
	for i, k := range sortedKeys(counts) {
		c := colorFor(k, i)
		values = append(values, chart.Value{
			Value: float64(counts[k]),
			Label: fmt.Sprintf("%s (%d)", label(k), counts[k]),
			Style: chart.Style{FillColor: c, StrokeColor: drawing.ColorWhite},
		})
	}

	pie := chart.PieChart{
		Title:  kind.Title(),
		Width:  r.width,
		Height: r.height,
		Values: values,
	}
	return pie.Render(chart.PNG, w)
}

func (r *Renderer) bars(w io.Writer, kind Kind, counts map[string]int) error {
	if len(counts) == 0 {
		return ErrNoData
	}

	var values []chart.Value
	top := 0
	for i, k := range sortedKeys(counts) {
		c := colorFor(k, i)
		values = append(values, chart.Value{
			Value: float64(counts[k]),
			Label: label(k),
			Style: chart.Style{FillColor: c, StrokeColor: c},
		})
		if counts[k] > top {
			top = counts[k]
		}
	}

	bar := chart.BarChart{
		Title:      kind.Title(),
		Width:      r.width,
		Height:     r.height,
		BarWidth:   barWidth(r.width, len(values)),
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		// An explicit range keeps single-value charts from collapsing to zero height.
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: axisMax(top)}},
		Bars:  values,
	}
	return bar.Render(chart.PNG, w)
}

func (r *Renderer) stacked(w io.Writer, kind Kind, counts map[string]map[string]int) error {
	if len(counts) == 0 {
		return ErrNoData
	}

	// Shift colors are assigned once so segments match across bars.
	shiftIndex := make(map[string]int)
	for _, shifts := range counts {
		for shift := range shifts {
			shiftIndex[shift] = 0
		}
	}
	for i, shift := range sortedKeys(shiftIndex) {
		shiftIndex[shift] = i
	}

	var bars []chart.StackedBar
	for _, ticketType := range sortedKeys(counts) {
		shifts := counts[ticketType]
		bar := chart.StackedBar{Name: label(ticketType)}
		for _, shift := range sortedKeys(shifts) {
			c := colorFor(shift, shiftIndex[shift])
			bar.Values = append(bar.Values, chart.Value{
				Value: float64(shifts[shift]),
				Label: label(shift),
				Style: chart.Style{FillColor: c, StrokeColor: c},
			})
		}
		bars = append(bars, bar)
	}

	sbc := chart.StackedBarChart{
		Title:      kind.Title(),
		Width:      r.width,
		Height:     r.height,
		BarSpacing: 20,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		Bars:       bars,
	}
	return sbc.Render(chart.PNG, w)
}

func barWidth(width, n int) int {
	w := width / (2*n + 1)
	if w > 60 {
		return 60
	}
	if w < 8 {
		return 8
	}
	return w
}

// axisMax leaves headroom above the tallest bar.
func axisMax(top int) float64 {
	return float64(top + top/10 + 1)
}
