package analysis

import (
	"strings"

	"github.com/san-kum/longsim/internal/beam"
	"github.com/san-kum/longsim/internal/bucket"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds (phi, deltaE) points to draw, plus optional curves
// drawn as outlines.
type PhasePortrait struct {
	Points []Point
	Curves [][]Point
}

// NewPhasePortrait collects one ensemble state.
func NewPhasePortrait(phi, dE []float64) *PhasePortrait {
	p := &PhasePortrait{Points: make([]Point, 0, len(phi))}
	for i := range phi {
		p.Points = append(p.Points, Point{phi[i], dE[i]})
	}
	return p
}

// PortraitFromHistory collects the orbit of one particle across snapshots.
// A negative particle index collects every particle.
func PortraitFromHistory(history []beam.Snapshot, particle int) *PhasePortrait {
	p := &PhasePortrait{}
	for _, s := range history {
		if particle < 0 {
			for i := range s.Phi {
				p.Points = append(p.Points, Point{s.Phi[i], s.DeltaE[i]})
			}
			continue
		}
		if particle < len(s.Phi) {
			p.Points = append(p.Points, Point{s.Phi[particle], s.DeltaE[particle]})
		}
	}
	return p
}

// AddSeparatrix overlays a bucket boundary.
func (p *PhasePortrait) AddSeparatrix(s bucket.Separatrix) {
	if s.Empty() {
		return
	}
	curve := make([]Point, len(s.Phi))
	for i := range s.Phi {
		curve[i] = Point{s.Phi[i], s.DeltaE[i]}
	}
	p.Curves = append(p.Curves, curve)
}

// PhasePortraitToASCII renders the portrait on a width x height grid.
// Particles are drawn over curves, curves over the axes.
func PhasePortraitToASCII(portrait *PhasePortrait, width, height int) string {
	if portrait == nil || width < 2 || height < 2 {
		return ""
	}
	minX, maxX, minY, maxY, ok := portrait.bounds()
	if !ok {
		return ""
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}
	cell := func(p Point) (int, int, bool) {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		return row, col, row >= 0 && row < height && col >= 0 && col < width
	}

	if _, col, ok := cell(Point{0, minY}); ok && minX <= 0 && maxX >= 0 {
		for row := range canvas {
			canvas[row][col] = '│'
		}
	}
	if row, _, ok := cell(Point{minX, 0}); ok && minY <= 0 && maxY >= 0 {
		for col := range canvas[row] {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
			} else {
				canvas[row][col] = '─'
			}
		}
	}
	for _, c := range portrait.Curves {
		for _, p := range c {
			if row, col, ok := cell(p); ok {
				canvas[row][col] = '·'
			}
		}
	}
	for _, p := range portrait.Points {
		if row, col, ok := cell(p); ok {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
