package layout

import (
	"fmt"
	"sort"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
)

const (
	MinGap           = 16
	MinElementWidth  = 50
	MinElementHeight = 30
)

// Issue types reported by ValidateSlideLayout
const (
	IssueOverlap     = "overlap"
	IssueOutOfBounds = "out_of_bounds"
	IssueTooSmall    = "too_small"
)

// Issue is one layout problem on a slide
type Issue struct {
	Type     string   `json:"type"`
	Elements []string `json:"elements"`
	Message  string   `json:"message"`
}

// AdjustForAspectRatio rescales positions and sizes from the 1280x720 canvas
// to width x height. The input is not modified.
func AdjustForAspectRatio(elements []deck.SlideElement, width, height float64) []deck.SlideElement {
	sx := width / deck.CanvasWidth
	sy := height / deck.CanvasHeight

	out := make([]deck.SlideElement, len(elements))
	for i, el := range elements {
		el.X *= sx
		el.Y *= sy
		el.Width *= sx
		el.Height *= sy
		out[i] = el
	}
	return out
}

// EnforceMinimumSpacing orders elements top to bottom and pushes each one
// down to at least MinGap below the previous bottom edge, shrinking it to
// stay on the canvas. The input is not modified.
func EnforceMinimumSpacing(elements []deck.SlideElement) []deck.SlideElement {
	out := append([]deck.SlideElement(nil), elements...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Y < out[j].Y })

	for i := 1; i < len(out); i++ {
		prev := out[i-1]
		minY := prev.Y + prev.Height + MinGap
		if out[i].Y >= minY {
			continue
		}
		out[i].Y = minY
		if overflow := out[i].Y + out[i].Height - deck.CanvasHeight; overflow > 0 {
			out[i].Height -= overflow
			if out[i].Height < 0 {
				out[i].Height = 0
			}
		}
	}
	return out
}

// ValidateSlideLayout reports overlaps, out-of-bounds and undersized
// elements without modifying the slide.
func ValidateSlideLayout(slide deck.StyledSlide) []Issue {
	var issues []Issue
	els := slide.Elements

	for i := 0; i < len(els); i++ {
		for j := i + 1; j < len(els); j++ {
			if overlaps(els[i], els[j]) {
				issues = append(issues, Issue{
					Type:     IssueOverlap,
					Elements: []string{els[i].ID, els[j].ID},
					Message:  fmt.Sprintf("%s overlaps %s", els[i].ID, els[j].ID),
				})
			}
		}
	}

	for _, el := range els {
		if el.X < 0 || el.Y < 0 || el.X+el.Width > deck.CanvasWidth || el.Y+el.Height > deck.CanvasHeight {
			issues = append(issues, Issue{
				Type:     IssueOutOfBounds,
				Elements: []string{el.ID},
				Message:  fmt.Sprintf("%s is outside the %dx%d canvas", el.ID, deck.CanvasWidth, deck.CanvasHeight),
			})
		}
		if el.Width < MinElementWidth || el.Height < MinElementHeight {
			issues = append(issues, Issue{
				Type:     IssueTooSmall,
				Elements: []string{el.ID},
				Message:  fmt.Sprintf("%s is %.0fx%.0f (min %dx%d)", el.ID, el.Width, el.Height, MinElementWidth, MinElementHeight),
			})
		}
	}

	return issues
}

func overlaps(a, b deck.SlideElement) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width &&
		a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}
