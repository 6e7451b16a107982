package analysis

import (
	"fmt"
	"strings"
)

// PhasePortraitToSVG draws separatrix curves as paths and particles as
// dots, scaled to fill width x height with a 10% margin.
func PhasePortraitToSVG(portrait *PhasePortrait, width, height int) string {
	if portrait == nil || width <= 0 || height <= 0 {
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
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	project := func(p Point) (float64, float64) {
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		return x, y
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	if minY < 0 && minY+rangeY > 0 {
		_, y0 := project(Point{0, 0})
		fmt.Fprintf(&sb, `<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444466"/>
`, y0, width, y0)
	}

	for _, curve := range portrait.Curves {
		if len(curve) < 2 {
			continue
		}
		sb.WriteString(`<path fill="none" stroke="#00ccff" stroke-width="1.5" d="M`)
		for i, p := range curve {
			x, y := project(p)
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}

	if len(portrait.Points) > 0 {
		sb.WriteString("<g fill=\"#00ff88\">\n")
		for _, p := range portrait.Points {
			x, y := project(p)
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"1.5\"/>\n", x, y)
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func (p *PhasePortrait) bounds() (minX, maxX, minY, maxY float64, ok bool) {
	visit := func(pt Point) {
		if !ok {
			minX, maxX, minY, maxY, ok = pt.X, pt.X, pt.Y, pt.Y, true
			return
		}
		minX = min(minX, pt.X)
		maxX = max(maxX, pt.X)
		minY = min(minY, pt.Y)
		maxY = max(maxY, pt.Y)
	}
	for _, pt := range p.Points {
		visit(pt)
	}
	for _, c := range p.Curves {
		for _, pt := range c {
			visit(pt)
		}
	}
	return
}
