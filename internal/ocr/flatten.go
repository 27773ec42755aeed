package ocr

import (
	"math"
	"regexp"
	"strings"
)

// TextLine is one recognized line in document order.
type TextLine struct {
	Text       string
	Box        *Box
	Confidence float64
	Page       int
}

// Box is the bounding rectangle of a line, in the OCR's relative coordinates.
type Box struct {
	X0, Y0, X1, Y1 float64
}

var reSpaces = regexp.MustCompile(`\s+`)

// Flatten walks pages, blocks, lines and words in order and returns the lines
// plus the full text (lines joined with single spaces). Confidence is carried,
// never used to filter.
func Flatten(p *Payload) ([]TextLine, string) {
	if p == nil {
		return nil, ""
	}
	var (
		lines []TextLine
		texts []string
	)
	for pi, page := range p.Pages {
		for _, block := range page.Blocks {
			for _, line := range block.Lines {
				text := joinWords(line.Words)
				if text == "" {
					continue
				}
				lines = append(lines, TextLine{
					Text:       text,
					Box:        boundingBox(line.Geometry),
					Confidence: lineConfidence(line),
					Page:       pi + 1,
				})
				texts = append(texts, text)
			}
		}
	}
	return lines, strings.Join(texts, " ")
}

func joinWords(words []Word) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		v := strings.TrimSpace(reSpaces.ReplaceAllString(w.Value, " "))
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// lineConfidence prefers the line's objectness score, then the mean word confidence.
func lineConfidence(l Line) float64 {
	if l.ObjectnessScore != nil {
		return clamp01(*l.ObjectnessScore)
	}
	var sum float64
	n := 0
	for _, w := range l.Words {
		if w.Confidence != nil {
			sum += *w.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return clamp01(sum / float64(n))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// boundingBox spans all points that carry both coordinates; fewer than two points means no box.
func boundingBox(g Geometry) *Box {
	var pts [][]float64
	for _, pt := range g {
		if len(pt) >= 2 {
			pts = append(pts, pt)
		}
	}
	if len(pts) < 2 {
		return nil
	}
	b := &Box{X0: pts[0][0], Y0: pts[0][1], X1: pts[0][0], Y1: pts[0][1]}
	for _, pt := range pts[1:] {
		b.X0 = math.Min(b.X0, pt[0])
		b.Y0 = math.Min(b.Y0, pt[1])
		b.X1 = math.Max(b.X1, pt[0])
		b.Y1 = math.Max(b.Y1, pt[1])
	}
	return b
}
