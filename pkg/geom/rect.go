// Package geom implements the hyperrectangle algebra and the geometric-
// space factory that turns header-space predicates into disjoint (or, in
// the difference-of-cubes backend, overlapping) regions of packet header
// space.
package geom

import (
	"math/big"

	"github.com/flowclass/flowclass/pkg/packet"
)

// HyperRectangle is a half-open product [lo0,hi0) x ... x [lo(k-1),hi(k-1))
// over a fixed k-ordering of active fields, plus the alpha-index of the
// equivalence class it belongs to.
type HyperRectangle struct {
	Bounds []packet.Range
	Alpha  int
}

// NewRect builds a rectangle over bounds with no EC assigned yet (Alpha -1).
func NewRect(bounds []packet.Range) *HyperRectangle {
	b := make([]packet.Range, len(bounds))
	copy(b, bounds)
	return &HyperRectangle{Bounds: b, Alpha: -1}
}

// Clone returns a deep copy.
func (r *HyperRectangle) Clone() *HyperRectangle {
	b := make([]packet.Range, len(r.Bounds))
	copy(b, r.Bounds)
	return &HyperRectangle{Bounds: b, Alpha: r.Alpha}
}

// Equal reports whether two rectangles have identical bounds. Alpha is
// not compared — equality is purely geometric.
func (r *HyperRectangle) Equal(o *HyperRectangle) bool {
	if r == nil || o == nil {
		return r == o
	}
	if len(r.Bounds) != len(o.Bounds) {
		return false
	}
	for i := range r.Bounds {
		if r.Bounds[i] != o.Bounds[i] {
			return false
		}
	}
	return true
}

// Contains reports whether o is entirely inside r on every axis.
func (r *HyperRectangle) Contains(o *HyperRectangle) bool {
	for i := range r.Bounds {
		if o.Bounds[i].Lo < r.Bounds[i].Lo || o.Bounds[i].Hi > r.Bounds[i].Hi {
			return false
		}
	}
	return true
}

// Volume is the product of side lengths, computed with arbitrary
// precision so that high-dimensional rectangles cannot overflow.
func (r *HyperRectangle) Volume() *big.Int {
	vol := big.NewInt(1)
	side := new(big.Int)
	for _, b := range r.Bounds {
		side.SetInt64(b.Hi - b.Lo)
		vol.Mul(vol, side)
	}
	return vol
}

// Overlap returns the componentwise intersection of a and b, or (nil,
// false) if any axis yields an empty interval.
func Overlap(a, b *HyperRectangle) (*HyperRectangle, bool) {
	bounds := make([]packet.Range, len(a.Bounds))
	for i := range a.Bounds {
		rg, ok := a.Bounds[i].Intersect(b.Bounds[i])
		if !ok {
			return nil, false
		}
		bounds[i] = rg
	}
	return &HyperRectangle{Bounds: bounds, Alpha: -1}, true
}

// Subtract partitions a \ o into up to 2k disjoint rectangles, where o is
// required to be a subset of a. The axis-sweep policy peels off the slab
// below o's bound, then above it, then clips the running remainder to
// o's bound along that axis, before moving to the next axis — producing
// a deterministic, reproducible partition. Returns nil if o == a (the
// caller treats a itself as the overlap; no peeling needed).
func Subtract(a, o *HyperRectangle) []*HyperRectangle {
	if a.Equal(o) {
		return nil
	}

	var parts []*HyperRectangle
	remaining := a.Clone()

	for i := range remaining.Bounds {
		ra := remaining.Bounds[i]
		ro := o.Bounds[i]

		if ra.Lo < ro.Lo {
			below := remaining.Clone()
			below.Bounds[i] = packet.Range{Lo: ra.Lo, Hi: ro.Lo}
			parts = append(parts, below)
		}
		if ra.Hi > ro.Hi {
			above := remaining.Clone()
			above.Bounds[i] = packet.Range{Lo: ro.Hi, Hi: ra.Hi}
			parts = append(parts, above)
		}

		lo := ra.Lo
		if ro.Lo > lo {
			lo = ro.Lo
		}
		hi := ra.Hi
		if ro.Hi < hi {
			hi = ro.Hi
		}
		remaining.Bounds[i] = packet.Range{Lo: lo, Hi: hi}
	}

	return parts
}
