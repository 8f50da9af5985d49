package packet

// HeaderSpace is a conjunction of per-field inclusion sets: a packet
// matches iff, for every field present in the map, its value falls in
// one of the field's ranges. A field absent from the map is unconstrained
// (matches any value in its domain).
type HeaderSpace struct {
	Fields map[Field][]Range
}

// NewHeaderSpace returns an empty (match-everything) header space.
func NewHeaderSpace() HeaderSpace {
	return HeaderSpace{Fields: make(map[Field][]Range)}
}

// Include adds an allowed range for a field. Multiple calls for the same
// field accumulate as a union (disjunction) within that field.
func (hs HeaderSpace) Include(f Field, r Range) HeaderSpace {
	hs.Fields[f] = append(hs.Fields[f], r)
	return hs
}

// RangesFor returns the ranges constraining f, or the field's full domain
// if it is unconstrained.
func (hs HeaderSpace) RangesFor(f Field) []Range {
	if rs, ok := hs.Fields[f]; ok && len(rs) > 0 {
		return rs
	}
	return []Range{f.Domain()}
}

// ActiveFields returns the set of fields this header space actually
// constrains, i.e. the keys of Fields with at least one range.
func (hs HeaderSpace) ActiveFields() []Field {
	fields := make([]Field, 0, len(hs.Fields))
	for f, rs := range hs.Fields {
		if len(rs) > 0 {
			fields = append(fields, f)
		}
	}
	return fields
}
