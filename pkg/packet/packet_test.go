package packet

import "testing"

func TestRange_Intersect(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Range
		want     Range
		wantOK   bool
	}{
		{"overlapping", Range{0, 10}, Range{5, 15}, Range{5, 10}, true},
		{"disjoint", Range{0, 5}, Range{5, 10}, Range{5, 5}, false},
		{"contained", Range{0, 100}, Range{10, 20}, Range{10, 20}, true},
		{"identical", Range{3, 8}, Range{3, 8}, Range{3, 8}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersect(tt.b)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Intersect() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRange_Contains(t *testing.T) {
	r := Range{Lo: 10, Hi: 20}
	if !r.Contains(10) {
		t.Error("expected lo bound to be contained (half-open)")
	}
	if r.Contains(20) {
		t.Error("expected hi bound to be excluded (half-open)")
	}
	if !r.Contains(19) {
		t.Error("expected 19 to be contained")
	}
}

func TestHeaderSpace_RangesFor(t *testing.T) {
	hs := NewHeaderSpace().Include(FieldDstIP, Range{Lo: 10, Hi: 20})

	got := hs.RangesFor(FieldDstIP)
	if len(got) != 1 || got[0] != (Range{Lo: 10, Hi: 20}) {
		t.Errorf("RangesFor(FieldDstIP) = %+v", got)
	}

	// Unconstrained field returns full domain.
	got = hs.RangesFor(FieldSrcIP)
	if len(got) != 1 || got[0] != FieldSrcIP.Domain() {
		t.Errorf("RangesFor(FieldSrcIP) = %+v, want domain", got)
	}
}

func TestHeaderSpace_ActiveFields(t *testing.T) {
	hs := NewHeaderSpace().
		Include(FieldDstIP, Range{Lo: 0, Hi: 10}).
		Include(FieldDstPort, Range{Lo: 80, Hi: 81})

	active := hs.ActiveFields()
	if len(active) != 2 {
		t.Fatalf("ActiveFields() has %d entries, want 2", len(active))
	}
}

func TestDisposition_Has(t *testing.T) {
	d := DropACL
	if !d.Has(DispositionDenyIn) {
		t.Error("DropACL should include DenyIn")
	}
	if !d.Has(DispositionDenyOut) {
		t.Error("DropACL should include DenyOut")
	}
	if d.Has(DispositionNullRoute) {
		t.Error("DropACL should not include NullRoute")
	}
}

func TestDisposition_String(t *testing.T) {
	tests := []struct {
		d    Disposition
		want string
	}{
		{DispositionAccept, "ACCEPTED"},
		{DispositionDenyIn, "DENIED_IN"},
		{DispositionDenyOut, "DENIED_OUT"},
		{DispositionNullRoute, "NULL_ROUTED"},
		{DispositionNoRoute, "NO_ROUTE"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseDisposition(t *testing.T) {
	tests := []struct {
		in   string
		want Disposition
	}{
		{"accept", DispositionAccept},
		{"ACCEPTED", DispositionAccept},
		{"deny-in", DropACLIn},
		{"deny-out", DropACLOut},
		{"deny", DropACL},
		{"null-route", DropNullRoute},
		{"no-route", DropNoRoute},
		{"drop", DropAny},
		{"any", DispositionAccept | DropAny},
	}
	for _, tt := range tests {
		got, err := ParseDisposition(tt.in)
		if err != nil {
			t.Errorf("ParseDisposition(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDisposition(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDisposition("bogus"); err == nil {
		t.Error("expected an error for an unknown action name")
	}
}
