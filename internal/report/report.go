package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/rf"
)

var (
	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#444466"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	Value = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#00ccff")).
		Bold(true)

	Good = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	Warn = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	Bad  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)

// Field is one labelled line of a summary panel.
type Field struct {
	Label string
	Value string
}

// Box renders fields as an aligned, titled panel.
func Box(title string, fields []Field) string {
	width := 0
	for _, f := range fields {
		if len(f.Label) > width {
			width = len(f.Label)
		}
	}

	var b strings.Builder
	b.WriteString(Title.Render(title))
	for _, f := range fields {
		b.WriteString("\n")
		b.WriteString(Label.Render(fmt.Sprintf("%-*s", width, f.Label)))
		b.WriteString("  ")
		b.WriteString(Value.Render(f.Value))
	}
	return Panel.Render(b.String())
}

// RFFields describes an RF system and the machine it runs in.
func RFFields(cfg rf.Config, m rf.Machine) []Field {
	fields := []Field{
		{"voltage", formatFloat(cfg.Amplitude)},
		{"harmonics", joinInts(cfg.Harmonics)},
		{"ratios", joinFloats(ratios(cfg))},
		{"phases", joinFloats(cfg.Phases)},
		{"energy gain", formatFloat(cfg.EnergyGain)},
		{"beta", formatFloat(m.Beta)},
		{"energy", formatFloat(m.Energy)},
		{"eta", formatFloat(m.Eta)},
		{"charge", formatFloat(m.Charge)},
	}
	if m.BelowTransition() {
		fields = append(fields, Field{"regime", "below transition"})
	} else {
		fields = append(fields, Field{"regime", "above transition"})
	}
	return fields
}

// SynchronousFields describes the synchronous particle.
func SynchronousFields(s bucket.Synchronous) []Field {
	return []Field{
		{"phi_s", formatFloat(s.Phase)},
		{"dV/dphi", formatFloat(s.Slope)},
		{"k", formatFloat(s.K)},
	}
}

// MetricFields lists metrics sorted by name.
func MetricFields(metrics map[string]float64) []Field {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, len(names))
	for i, name := range names {
		fields[i] = Field{name, formatFloat(metrics[name])}
	}
	return fields
}

// SeparatrixTable renders one row per well.
func SeparatrixTable(seps []bucket.Separatrix) string {
	var b strings.Builder
	b.WriteString(Header.Render(fmt.Sprintf("%-4s %12s %12s %12s %12s %12s",
		"well", "center", "phi_min", "phi_max", "height", "area")))
	for _, s := range seps {
		b.WriteString("\n")
		if s.Empty() {
			b.WriteString(fmt.Sprintf("%-4d %12.5g ", s.Well, s.Center))
			b.WriteString(Warn.Render("empty"))
			continue
		}
		b.WriteString(fmt.Sprintf("%-4d %12.5g %12.5g %12.5g %12.5g %12.5g",
			s.Well, s.Center, s.PhiMin, s.PhiMax, s.Height(), s.Area()))
	}
	return b.String()
}

// Capture colours a captured fraction.
func Capture(fraction float64) string {
	text := fmt.Sprintf("%.1f%%", 100*fraction)
	switch {
	case fraction > 0.99:
		return Good.Render(text)
	case fraction > 0.5:
		return Warn.Render(text)
	}
	return Bad.Render(text)
}

// Sparkline renders values with block characters, sampled to width.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		idx := int((values[i*step] - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[min(max(idx, 0), len(chars)-1)])
	}
	return b.String()
}

func ratios(cfg rf.Config) []float64 {
	out := make([]float64, len(cfg.Harmonics))
	for i := range out {
		out[i] = cfg.Ratio(i)
	}
	return out
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.6g", v)
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ", ")
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
