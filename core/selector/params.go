// Package selector parses the trailing "?params" query-string of a
// selector (spec glossary: Selector = keyexpr + "?params"), along with
// the time-range grammar used by history queries.
package selector

import "strings"

// Param is one key-value pair of a selector's query-string.
type Param struct {
	Key   string
	Value string
}

// ParseParams splits a "a=1;bee=string" query-string into ordered
// key-value pairs. A trailing empty segment (from a trailing ';')
// yields no extra param, per spec §8 scenario 3.
func ParseParams(qs string) []Param {
	if qs == "" {
		return nil
	}
	segs := strings.Split(qs, ";")
	out := make([]Param, 0, len(segs))
	for _, seg := range segs {
		if seg == "" {
			continue
		}
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			out = append(out, Param{Key: seg})
			continue
		}
		out = append(out, Param{Key: k, Value: v})
	}
	return out
}

// Get returns the value of the first param named key, and whether it
// was present.
func Get(params []Param, key string) (string, bool) {
	for _, p := range params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}
