package srcloc

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Loc
		wantErr bool
	}{
		{in: "a.c:3:7", want: Loc{File: "a.c", Line: 3, Col: 7}},
		{in: "/src/x/y.c:120:9", want: Loc{File: "/src/x/y.c", Line: 120, Col: 9}},
		{in: "C:/w/a.c:1:1", want: Loc{File: "C:/w/a.c", Line: 1, Col: 1}},
		{in: "NullLoc", want: Null},
		{in: "nullloc", want: Null},
		{in: "NULL", want: Null},
		{in: "", wantErr: true},
		{in: "a.c:3", wantErr: true},
		{in: ":3:4", wantErr: true},
		{in: "a.c:0:4", wantErr: true},
		{in: "a.c:3:x", wantErr: true},
		{in: "a.c:-1:2", wantErr: true},
		{in: "a.c:99999999999:2", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Parse(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestLocStringRoundTrip(t *testing.T) {
	for _, s := range []string{"a.c:3:7", "NullLoc", "dir/with:colon.c:10:2"} {
		l := MustParse(s)
		if l.String() != s {
			t.Errorf("String() = %q, want %q", l.String(), s)
		}
	}
}

func TestConstraintHits(t *testing.T) {
	c := Constraint{File: "src/dec.c", Range: [4]uint32{10, 5, 12, 3}}
	cases := []struct {
		loc       Loc
		hit, near bool
		inside    bool
	}{
		{Loc{File: "src/dec.c", Line: 10, Col: 5}, true, true, true},
		{Loc{File: "src/./dec.c", Line: 10, Col: 5}, true, true, true},
		{Loc{File: "src/dec.c", Line: 10, Col: 6}, false, true, true},
		{Loc{File: "src/dec.c", Line: 12, Col: 9}, false, true, false},
		{Loc{File: "src/./dec.c", Line: 12, Col: 3}, false, true, true},
		{Loc{File: "src/./dec.c", Line: 10, Col: 4}, false, true, false},
		{Loc{File: "src/dec.c", Line: 13, Col: 1}, false, false, false},
		{Loc{File: "src/other.c", Line: 10, Col: 5}, false, false, false},
		{Null, false, false, false},
	}
	for _, tc := range cases {
		if got := c.IsHit(tc.loc); got != tc.hit {
			t.Errorf("IsHit(%v) = %v, want %v", tc.loc, got, tc.hit)
		}
		if got := c.NearHit(tc.loc); got != tc.near {
			t.Errorf("NearHit(%v) = %v, want %v", tc.loc, got, tc.near)
		}
		if got := tc.loc.Inside(c); got != tc.inside {
			t.Errorf("Inside(%v) = %v, want %v", tc.loc, got, tc.inside)
		}
	}
}

func TestSamePathUnicode(t *testing.T) {
	nfc := "caf\u00e9.c"
	nfd := "cafe\u0301.c"
	if !SamePath(nfc, nfd) {
		t.Fatalf("expected NFC and NFD spellings to match")
	}
}

func TestParseConstraint(t *testing.T) {
	c, err := ParseConstraint("lib/x:y.c:4:2:6:1")
	if err != nil {
		t.Fatalf("ParseConstraint: %v", err)
	}
	want := Constraint{File: "lib/x:y.c", Range: [4]uint32{4, 2, 6, 1}}
	if c != want {
		t.Fatalf("got %+v, want %+v", c, want)
	}
	for _, bad := range []string{"a.c:1:2:3", "a.c:5:1:4:1", "a.c:0:1:1:1", ":1:1:1:1"} {
		if _, err := ParseConstraint(bad); !errors.Is(err, ErrBadConstraint) {
			t.Errorf("ParseConstraint(%q) err = %v, want ErrBadConstraint", bad, err)
		}
	}
}

func TestFromInts(t *testing.T) {
	if _, err := FromInts("a.c", []int64{1, 2, 3}); err == nil {
		t.Fatalf("expected error for short range")
	}
	if _, err := FromInts("a.c", []int64{1, -2, 3, 4}); err == nil {
		t.Fatalf("expected error for negative value")
	}
	c, err := FromInts("a.c", []int64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("FromInts: %v", err)
	}
	if c.Start().String() != "a.c:1:2" || c.End().String() != "a.c:3:4" {
		t.Fatalf("unexpected bounds %v..%v", c.Start(), c.End())
	}
}

func TestLocText(t *testing.T) {
	for _, lit := range []string{"src/a.c:12:3", "NullLoc"} {
		l := MustParse(lit)
		b, err := l.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%q): %v", lit, err)
		}
		var back Loc
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if back != l {
			t.Fatalf("text round trip of %q gave %v", lit, back)
		}
	}
	var l Loc
	if err := l.UnmarshalText([]byte("a.c:0:1")); err == nil {
		t.Fatalf("expected error for zero line")
	}
}
