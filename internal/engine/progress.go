package engine

import "github.com/isometry/groupops/internal/report"

// Span maps local progress fractions onto a sub-range of the job's [0,1]
// progress bar, so that resolution progress composes correctly inside a larger
// operation's bar.
type Span struct {
	start, end float64
	emitter    report.Emitter
}

// NewSpan creates the root span covering the whole progress bar.
func NewSpan(emitter report.Emitter) Span {
	return Span{start: 0, end: 1, emitter: emitter}
}

// Sub derives a span covering [start,end] of the receiver's range.
func (s Span) Sub(start, end float64) Span {
	width := s.end - s.start
	return Span{
		start:   s.start + start*width,
		end:     s.start + end*width,
		emitter: s.emitter,
	}
}

// Emit reports progress at a local fraction of this span.
func (s Span) Emit(fraction float64, status string) {
	if s.emitter == nil {
		return
	}
	if fraction < 0 {
		fraction = 0
	} else if fraction > 1 {
		fraction = 1
	}
	s.emitter.Progress(report.Progress{
		Fraction: s.start + fraction*(s.end-s.start),
		Status:   status,
	})
}

// Step reports progress after completing item i of n.
func (s Span) Step(i, n int, status string) {
	if n <= 0 {
		return
	}
	s.Emit(float64(i)/float64(n), status)
}
