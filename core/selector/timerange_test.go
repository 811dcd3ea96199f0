package selector

import "testing"

func closeEnough(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}

func TestParseTimeRangeUnbounded(t *testing.T) {
	r, err := ParseTimeRange("[..]")
	if err != nil {
		t.Fatal(err)
	}
	if r.Start.Bound != BoundUnbounded || r.End.Bound != BoundUnbounded {
		t.Fatalf("expected both ends unbounded, got %+v", r)
	}
}

func TestParseTimeRangeNowToNow(t *testing.T) {
	r, err := ParseTimeRange("[now()..now(5)]")
	if err != nil {
		t.Fatal(err)
	}
	if r.Start.Bound != BoundInclusive || !closeEnough(r.Start.NowOffset, 0) {
		t.Fatalf("unexpected start: %+v", r.Start)
	}
	if r.End.Bound != BoundExclusive || !closeEnough(r.End.NowOffset, 5) {
		t.Fatalf("unexpected end: %+v", r.End)
	}
}

func TestParseTimeRangeUnitSuffixes(t *testing.T) {
	r, err := ParseTimeRange("[now(-999.9u)..now(100.5ms)]")
	if err != nil {
		t.Fatal(err)
	}
	if !closeEnough(r.Start.NowOffset, -0.0009999) {
		t.Fatalf("unexpected start offset: %v", r.Start.NowOffset)
	}
	if !closeEnough(r.End.NowOffset, 0.1005) {
		t.Fatalf("unexpected end offset: %v", r.End.NowOffset)
	}
}

func TestParseTimeRangeReversedBrackets(t *testing.T) {
	// A reversed bracket pair flips which end is inclusive vs exclusive:
	// '[' is always inclusive of the value beside it, ']' exclusive,
	// regardless of which side of the range it sits on.
	r, err := ParseTimeRange("]now(-87.6s)..now(1.5m)[")
	if err != nil {
		t.Fatal(err)
	}
	if r.Start.Bound != BoundExclusive || !closeEnough(r.Start.NowOffset, -87.6) {
		t.Fatalf("unexpected start: %+v", r.Start)
	}
	if r.End.Bound != BoundInclusive || !closeEnough(r.End.NowOffset, 90.0) {
		t.Fatalf("unexpected end: %+v", r.End)
	}
}

// Spec §8 scenario 4: "[now(-24.5h)..now(6.75d)]" -> start=Inclusive(-88200.0s), end=Exclusive(+583200.0s).
func TestParseTimeRangeSpecScenario4(t *testing.T) {
	r, err := ParseTimeRange("[now(-24.5h)..now(6.75d)]")
	if err != nil {
		t.Fatal(err)
	}
	if r.Start.Bound != BoundInclusive || !closeEnough(r.Start.NowOffset, -88200.0) {
		t.Fatalf("unexpected start: %+v", r.Start)
	}
	if r.End.Bound != BoundExclusive || !closeEnough(r.End.NowOffset, 583200.0) {
		t.Fatalf("unexpected end: %+v", r.End)
	}
}

func TestParseTimeRangeWeeks(t *testing.T) {
	r, err := ParseTimeRange("[now(-1.75w)..now()]")
	if err != nil {
		t.Fatal(err)
	}
	if !closeEnough(r.Start.NowOffset, -1058400.0) {
		t.Fatalf("unexpected start offset: %v", r.Start.NowOffset)
	}
	if !closeEnough(r.End.NowOffset, 0.0) {
		t.Fatalf("unexpected end offset: %v", r.End.NowOffset)
	}
}

func TestParseTimeRangeDurationForm(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"[now();7.3]", 7.3},
		{"[now();97.4u]", 0.0000974},
		{"[now();568.4ms]", 0.5684},
		{"[now();9.4s]", 9.4},
		{"[now();6.89m]", 413.4},
		{"[now();1.567h]", 5641.2},
		{"[now();2.7894d]", 241004.16},
		{"[now();5.9457w]", 3595959.36},
	}
	for _, c := range cases {
		r, err := ParseTimeRange(c.in)
		if err != nil {
			t.Fatalf("%s: %v", c.in, err)
		}
		if r.Start.Bound != BoundInclusive || !closeEnough(r.Start.NowOffset, 0) {
			t.Fatalf("%s: unexpected start %+v", c.in, r.Start)
		}
		if r.End.Bound != BoundExclusive || !closeEnough(r.End.NowOffset, c.want) {
			t.Fatalf("%s: unexpected end %+v, want offset %v", c.in, r.End, c.want)
		}
	}
}

// Spec §8 scenario 4's malformed case.
func TestParseTimeRangeMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"[;]",
		"[now();]",
		"[now()..5.6]",
		"[now();s]",
		"[now();one]",
	} {
		if _, err := ParseTimeRange(in); err == nil {
			t.Fatalf("ParseTimeRange(%q): expected error", in)
		}
	}
}
