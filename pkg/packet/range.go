package packet

// Range is a half-open integer interval [Lo, Hi).
type Range struct {
	Lo, Hi int64
}

// Empty reports whether the range contains no values.
func (r Range) Empty() bool {
	return r.Lo >= r.Hi
}

// Contains reports whether v falls inside the range.
func (r Range) Contains(v int64) bool {
	return v >= r.Lo && v < r.Hi
}

// Intersect returns the overlap of two ranges, and whether it is non-empty.
func (r Range) Intersect(o Range) (Range, bool) {
	lo := r.Lo
	if o.Lo > lo {
		lo = o.Lo
	}
	hi := r.Hi
	if o.Hi < hi {
		hi = o.Hi
	}
	result := Range{Lo: lo, Hi: hi}
	return result, !result.Empty()
}
