package selector

import (
	"strconv"
	"strings"

	"zenoh-go/core/zerr"
)

// TimeBound is the inclusivity of one end of a TimeRange.
type TimeBound int

const (
	// BoundUnbounded means the range is open on this side: "[..]".
	BoundUnbounded TimeBound = iota
	BoundInclusive
	BoundExclusive
)

// TimeValue is one endpoint of a TimeRange, expressed as an offset in
// seconds from the instant the range is evaluated ("now()").
type TimeValue struct {
	Bound     TimeBound
	NowOffset float64
}

// TimeRange is a parsed "[now(-1h)..now()]"-style history-query bound
// (spec glossary: TimeRange). Both ends are offsets from now(), since
// that is the only anchor the grammar supports.
type TimeRange struct {
	Start TimeValue
	End   TimeValue
}

// ParseTimeRange parses the time-range grammar used by the "_time"
// selector parameter: "[<start>..<end>]" or "[<start>;<duration>]",
// where the opening delimiter ('[' or ']') sets the start bound's
// inclusivity and the closing delimiter sets the end bound's: '[' is
// inclusive of the value it sits next to, ']' is exclusive of it,
// regardless of which side of the range it appears on.
func ParseTimeRange(s string) (TimeRange, error) {
	if len(s) < 2 {
		return TimeRange{}, zerr.Newf(zerr.InvalidArgument, "time range %q too short", s)
	}

	var startBound, endBound TimeBound
	switch s[0] {
	case '[':
		startBound = BoundInclusive
	case ']':
		startBound = BoundExclusive
	default:
		return TimeRange{}, zerr.Newf(zerr.InvalidArgument, "time range %q must start with '[' or ']'", s)
	}
	switch s[len(s)-1] {
	case ']':
		endBound = BoundExclusive
	case '[':
		endBound = BoundInclusive
	default:
		return TimeRange{}, zerr.Newf(zerr.InvalidArgument, "time range %q must end with ']' or '['", s)
	}

	body := s[1 : len(s)-1]
	if body == "" {
		return TimeRange{}, zerr.Newf(zerr.InvalidArgument, "empty time range %q", s)
	}
	if body == ".." {
		return TimeRange{Start: TimeValue{Bound: BoundUnbounded}, End: TimeValue{Bound: BoundUnbounded}}, nil
	}

	if idx := strings.Index(body, ";"); idx >= 0 {
		startRaw, durRaw := body[:idx], body[idx+1:]
		startOffset, err := parseNowExpr(startRaw)
		if err != nil {
			return TimeRange{}, err
		}
		dur, err := parseDuration(durRaw)
		if err != nil {
			return TimeRange{}, err
		}
		return TimeRange{
			Start: TimeValue{Bound: startBound, NowOffset: startOffset},
			End:   TimeValue{Bound: endBound, NowOffset: startOffset + dur},
		}, nil
	}

	idx := strings.Index(body, "..")
	if idx < 0 {
		return TimeRange{}, zerr.Newf(zerr.InvalidArgument, "time range %q missing '..' or ';'", s)
	}
	startRaw, endRaw := body[:idx], body[idx+2:]
	startOffset, err := parseNowExpr(startRaw)
	if err != nil {
		return TimeRange{}, err
	}
	endOffset, err := parseNowExpr(endRaw)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRange{
		Start: TimeValue{Bound: startBound, NowOffset: startOffset},
		End:   TimeValue{Bound: endBound, NowOffset: endOffset},
	}, nil
}

// parseNowExpr parses "now()" or "now(<signed duration>)" and returns
// the offset in seconds. "now()" is an offset of zero.
func parseNowExpr(s string) (float64, error) {
	if !strings.HasPrefix(s, "now(") || !strings.HasSuffix(s, ")") {
		return 0, zerr.Newf(zerr.InvalidArgument, "expected now(...), got %q", s)
	}
	inner := s[len("now(") : len(s)-1]
	if inner == "" {
		return 0, nil
	}
	return parseDuration(inner)
}

// parseDuration parses a signed float followed by an optional unit
// suffix (u=microseconds, ms=milliseconds, s=seconds, m=minutes,
// h=hours, d=days, w=weeks) and returns the value in seconds. No
// suffix defaults to seconds.
func parseDuration(s string) (float64, error) {
	if s == "" {
		return 0, zerr.New(zerr.InvalidArgument, "empty duration")
	}
	unit := 1.0
	numPart := s
	switch {
	case strings.HasSuffix(s, "us"), strings.HasSuffix(s, "u"):
		numPart = strings.TrimSuffix(strings.TrimSuffix(s, "us"), "u")
		unit = 1e-6
	case strings.HasSuffix(s, "ms"):
		numPart = strings.TrimSuffix(s, "ms")
		unit = 1e-3
	case strings.HasSuffix(s, "s"):
		numPart = strings.TrimSuffix(s, "s")
		unit = 1
	case strings.HasSuffix(s, "m"):
		numPart = strings.TrimSuffix(s, "m")
		unit = 60
	case strings.HasSuffix(s, "h"):
		numPart = strings.TrimSuffix(s, "h")
		unit = 3600
	case strings.HasSuffix(s, "d"):
		numPart = strings.TrimSuffix(s, "d")
		unit = 86400
	case strings.HasSuffix(s, "w"):
		numPart = strings.TrimSuffix(s, "w")
		unit = 7 * 86400
	}
	if numPart == "" {
		return 0, zerr.Newf(zerr.InvalidArgument, "duration %q has no numeric part", s)
	}
	v, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, zerr.Newf(zerr.InvalidArgument, "invalid duration %q: %v", s, err)
	}
	return v * unit, nil
}
