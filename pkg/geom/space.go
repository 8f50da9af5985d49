package geom

import (
	"fmt"
	"net"

	"github.com/flowclass/flowclass/pkg/packet"
)

// Space fixes the k-ordering of active packet fields that every
// HyperRectangle produced by this factory is built over.
type Space struct {
	fields []packet.Field
	index  map[packet.Field]int
}

// NewSpace builds a k-ordering from the given fields, deduplicating while
// preserving first-seen order.
func NewSpace(fields []packet.Field) *Space {
	s := &Space{index: make(map[packet.Field]int)}
	for _, f := range fields {
		if _, ok := s.index[f]; ok {
			continue
		}
		s.index[f] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

// Fields returns the space's k-ordering.
func (s *Space) Fields() []packet.Field {
	return s.fields
}

// K is the dimensionality of the space.
func (s *Space) K() int {
	return len(s.fields)
}

// AxisOf returns the axis index of f, or -1 if f is not active in this space.
func (s *Space) AxisOf(f packet.Field) int {
	if i, ok := s.index[f]; ok {
		return i
	}
	return -1
}

// FullSpace returns a rectangle spanning every active field's full domain.
func (s *Space) FullSpace() *HyperRectangle {
	bounds := make([]packet.Range, s.K())
	for i, f := range s.fields {
		bounds[i] = f.Domain()
	}
	return &HyperRectangle{Bounds: bounds, Alpha: -1}
}

// GeometricSpace is an ordered union of rectangles — the result of
// fanning disjunctions on a field out into a cross-product.
type GeometricSpace []*HyperRectangle

// FromHeaderSpace builds a GeometricSpace from a header-space predicate.
// A field with multiple disjoint ranges fans out via cross-product with
// every other active field's ranges, so the result may contain several
// rectangles representing one union.
func (s *Space) FromHeaderSpace(hs packet.HeaderSpace) GeometricSpace {
	combos := [][]packet.Range{{}}
	for _, f := range s.fields {
		ranges := hs.RangesFor(f)
		next := make([][]packet.Range, 0, len(combos)*len(ranges))
		for _, combo := range combos {
			for _, r := range ranges {
				extended := make([]packet.Range, len(combo)+1)
				copy(extended, combo)
				extended[len(combo)] = r
				next = append(next, extended)
			}
		}
		combos = next
	}

	result := make(GeometricSpace, 0, len(combos))
	for _, bounds := range combos {
		result = append(result, &HyperRectangle{Bounds: bounds, Alpha: -1})
	}
	return result
}

// FromACLLine treats an ACL line's match predicate as a header-space
// predicate and takes only the first rectangle it fans out to. Lines
// whose predicate is a disjunction (negations, or a whitelist combined
// with a blacklist) in general produce multiple rectangles; taking only
// the first underapproximates the denied set. This simplification is
// intentional, preserved to match the reference outputs of the system
// this engine models rather than fixed.
func (s *Space) FromACLLine(match packet.HeaderSpace) *HyperRectangle {
	gs := s.FromHeaderSpace(match)
	if len(gs) == 0 {
		return s.FullSpace()
	}
	return gs[0]
}

// FromPrefix builds a rectangle restricting the destination-IP axis to an
// IPv4 CIDR prefix and leaving every other active axis at its full
// domain range, the rule shape a FIB row produces. Returns the
// rectangle and the prefix length (used as the rule's priority).
func (s *Space) FromPrefix(cidr string) (*HyperRectangle, int, error) {
	r := s.FullSpace()
	axis := s.AxisOf(packet.FieldDstIP)
	if axis < 0 {
		return nil, 0, fmt.Errorf("geom: destination IP axis not active in this space")
	}

	rng, prefixLen, err := PrefixRange(cidr)
	if err != nil {
		return nil, 0, err
	}
	r.Bounds[axis] = rng
	return r, prefixLen, nil
}

// PrefixRange converts an IPv4 CIDR prefix into a half-open [lo, hi)
// range over the 32-bit address space, with the upper bound extended
// past the prefix's broadcast address so the range is exclusive, and
// returns the prefix length alongside it.
func PrefixRange(cidr string) (packet.Range, int, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return packet.Range{}, 0, fmt.Errorf("geom: invalid prefix %q: %w", cidr, err)
	}
	v4 := ip.To4()
	if v4 == nil {
		return packet.Range{}, 0, fmt.Errorf("geom: only IPv4 prefixes are supported: %q", cidr)
	}
	ones, bits := ipNet.Mask.Size()
	if bits != 32 {
		return packet.Range{}, 0, fmt.Errorf("geom: only IPv4 prefixes are supported: %q", cidr)
	}

	network := ipNet.IP.To4()
	lo := ipToUint32(network)
	size := uint64(1) << uint(32-ones)
	hi := uint64(lo) + size

	return packet.Range{Lo: int64(lo), Hi: int64(hi)}, ones, nil
}

func ipToUint32(ip net.IP) uint32 {
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

// Example returns one concrete header from inside rect: the lower bound
// on every active axis.
func (s *Space) Example(rect *HyperRectangle) map[packet.Field]int64 {
	example := make(map[packet.Field]int64, s.K())
	for i, f := range s.fields {
		example[f] = rect.Bounds[i].Lo
	}
	return example
}
