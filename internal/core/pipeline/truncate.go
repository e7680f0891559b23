package pipeline

import (
	"sort"

	"github.com/MuhamadAgungGumelar/deck-generator-be/internal/core/deck"
)

// TruncateByPriority keeps the limit most important slides (high > medium >
// low, earlier first on ties) in outline order and renumbers them 1..limit.
// The input is not modified.
func TruncateByPriority(s *deck.PresentationStructure, limit int) *deck.PresentationStructure {
	out := *s
	if limit <= 0 || len(s.Slides) <= limit {
		out.Slides = append([]deck.SlideOutline(nil), s.Slides...)
		return &out
	}

	idx := make([]int, len(s.Slides))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return s.Slides[idx[a]].Priority.Rank() < s.Slides[idx[b]].Priority.Rank()
	})
	keep := idx[:limit]
	sort.Ints(keep)

	out.Slides = make([]deck.SlideOutline, 0, limit)
	for n, i := range keep {
		slide := s.Slides[i]
		slide.SlideNumber = n + 1
		out.Slides = append(out.Slides, slide)
	}
	out.TotalSlides = len(out.Slides)
	return &out
}
