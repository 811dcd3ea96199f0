// Package keyexpr implements key-expression canonicalization and
// matching (spec §3, §4.6): chunked intersection and inclusion tests
// over "/"-separated wildcard patterns. Each test splits its inputs
// into fresh chunk slices, so matching allocates.
package keyexpr

import (
	"strings"

	"zenoh-go/core/zerr"
)

// Canonical drops the empty chunks left by repeated, leading or
// trailing slashes, collapses adjacent "**" chunks, and rejects '#',
// '?' and any "**" that is not a whole chunk. It folds structure only:
// case is preserved, and matching compares chunks case-sensitively.
func Canonical(key string) (string, error) {
	if key == "" {
		return "", zerr.New(zerr.InvalidArgument, "empty key expression")
	}
	raw := strings.Split(key, "/")
	chunks := make([]string, 0, len(raw))
	for _, c := range raw {
		if c == "" {
			continue // fold repeated/leading/trailing slashes
		}
		if err := validateChunk(c); err != nil {
			return "", err
		}
		if c == "**" && len(chunks) > 0 && chunks[len(chunks)-1] == "**" {
			continue // collapse adjacent "**"
		}
		chunks = append(chunks, c)
	}
	if len(chunks) == 0 {
		return "", zerr.New(zerr.InvalidArgument, "key expression has no chunks")
	}
	return strings.Join(chunks, "/"), nil
}

func validateChunk(c string) error {
	if c != "**" && strings.Contains(c, "**") {
		return zerr.Newf(zerr.InvalidArgument, "\"**\" must be a whole chunk, got %q", c)
	}
	for _, r := range c {
		if r == '#' || r == '?' {
			return zerr.Newf(zerr.InvalidArgument, "invalid character %q in chunk %q", r, c)
		}
	}
	return nil
}

func chunksOf(canonical string) []string {
	return strings.Split(canonical, "/")
}

// chunkMatches reports whether chunk pattern a matches concrete/pattern
// chunk b, honoring "*" (matches one whole chunk) and "$*" (matches
// within a chunk, i.e. a substring wildcard anchored at both ends by
// the surrounding literal text).
func chunkMatches(a, b string) bool {
	if a == "*" || b == "*" {
		return true
	}
	if a == b {
		return true
	}
	if strings.Contains(a, "$*") {
		return globChunk(a, b)
	}
	if strings.Contains(b, "$*") {
		return globChunk(b, a)
	}
	return false
}

// globChunk matches concrete chunk c against pattern p containing one
// or more "$*" substring wildcards, via a greedy two-pointer scan over
// the '$'-delimited literal segments of p.
func globChunk(p, c string) bool {
	segs := strings.Split(p, "$*")
	pos := 0
	for i, seg := range segs {
		if seg == "" {
			continue
		}
		if i == 0 {
			if !strings.HasPrefix(c[pos:], seg) {
				return false
			}
			pos += len(seg)
			continue
		}
		if i == len(segs)-1 {
			return strings.HasSuffix(c[pos:], seg)
		}
		idx := strings.Index(c[pos:], seg)
		if idx < 0 {
			return false
		}
		pos += idx + len(seg)
	}
	return true
}

// Intersects reports whether some concrete key matches both a and b.
// Both inputs must already be canonical. The walk backtracks by
// recursing into both alternatives at each "**", so its running time
// is not linear in |a|+|b| when several "**" chunks are involved.
func Intersects(a, b string) bool {
	return walk(chunksOf(a), chunksOf(b), intersectMode)
}

// Includes reports whether every concrete key matching a also matches
// b (every key of a is included in b).
func Includes(a, b string) bool {
	return walk(chunksOf(a), chunksOf(b), includesMode)
}

type walkMode int

const (
	intersectMode walkMode = iota
	includesMode
)

// walk performs the two-pointer chunk comparison with backtracking for
// "**". intersectMode treats "**" on either side symmetrically;
// includesMode additionally requires that wherever b has a concrete
// chunk, a's corresponding chunk is not a strictly wider wildcard.
func walk(a, b []string, mode walkMode) bool {
	return walkFrom(a, 0, b, 0, mode, 0, 0)
}

func walkFrom(a []string, ai int, b []string, bi int, mode walkMode, backA, backB int) bool {
	for {
		if ai == len(a) && bi == len(b) {
			return true
		}
		if ai == len(a) {
			return allDoubleStarFrom(b, bi)
		}
		if bi == len(b) {
			return allDoubleStarFrom(a, ai)
		}

		ca, cb := a[ai], b[bi]

		if ca == "**" {
			// Try consuming zero chunks of b first (greedy shrink on
			// backtrack), else consume one chunk of b and retry.
			if walkFrom(a, ai+1, b, bi, mode, ai, bi) {
				return true
			}
			return walkFrom(a, ai, b, bi+1, mode, ai, bi)
		}
		if cb == "**" {
			// In includesMode only the including side's "**" may absorb
			// chunks; a "**" on the included side widens what it matches
			// beyond whatever ca requires, so inclusion fails here.
			if mode == includesMode {
				return false
			}
			if walkFrom(a, ai, b, bi+1, mode, ai, bi) {
				return true
			}
			return walkFrom(a, ai+1, b, bi, mode, ai, bi)
		}

		if mode == includesMode {
			if !includesChunk(ca, cb) {
				return false
			}
		} else if !chunkMatches(ca, cb) {
			return false
		}
		ai++
		bi++
	}
}

// includesChunk reports whether every concrete chunk matching pattern
// cb also matches pattern ca (a includes b at this position).
func includesChunk(ca, cb string) bool {
	if ca == "*" {
		return true
	}
	if cb == "*" {
		return ca == "*"
	}
	if ca == cb {
		return true
	}
	if strings.Contains(ca, "$*") {
		return globChunk(ca, cb) || chunkMatches(ca, cb)
	}
	return false
}

func allDoubleStarFrom(chunks []string, from int) bool {
	for _, c := range chunks[from:] {
		if c != "**" {
			return false
		}
	}
	return true
}
