package schema

import (
	"sort"
	"strings"
)

// MatrixPair is a single matrix variable binding.
type MatrixPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MatrixConfig is the set of variable bindings distinguishing one matrix job
// instance from another. Identity is order-independent: two configs are the
// same entity iff their canonical serializations are equal.
type MatrixConfig struct {
	Pairs []MatrixPair `json:"pairs"`

	// canonical is computed once and reused as the grouping identity.
	canonical string
}

// NewMatrixConfig builds a config from a raw key/value mapping. The canonical
// form is computed eagerly so equality never depends on map iteration order.
func NewMatrixConfig(kv map[string]string) *MatrixConfig {
	if len(kv) == 0 {
		return nil
	}
	pairs := make([]MatrixPair, 0, len(kv))
	for k, v := range kv {
		pairs = append(pairs, MatrixPair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	m := &MatrixConfig{Pairs: pairs}
	m.canonical = m.serialize()
	return m
}

// ParseMatrixConfig rebuilds a config from its canonical serialization, as
// stored in the jobs table. Returns nil for an empty string.
func ParseMatrixConfig(s string) *MatrixConfig {
	if s == "" {
		return nil
	}
	kv := make(map[string]string)
	for _, part := range splitUnescaped(s, ',') {
		pair := splitUnescaped(part, '=')
		if len(pair) != 2 {
			continue
		}
		kv[unescapeToken(pair[0])] = unescapeToken(pair[1])
	}
	return NewMatrixConfig(kv)
}

// Canonical returns the lexicographically sorted key=value serialization used
// as the grouping identity for matrix statistics.
func (m *MatrixConfig) Canonical() string {
	if m == nil {
		return ""
	}
	if m.canonical == "" {
		m.canonical = m.serialize()
	}
	return m.canonical
}

func (m *MatrixConfig) serialize() string {
	parts := make([]string, len(m.Pairs))
	for i, p := range m.Pairs {
		parts[i] = escapeToken(p.Key) + "=" + escapeToken(p.Value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// matrixEscaper protects the separator characters so keys and values that
// contain them survive the canonical round trip.
var matrixEscaper = strings.NewReplacer(`\`, `\\`, ",", `\,`, "=", `\=`)

func escapeToken(s string) string {
	return matrixEscaper.Replace(s)
}

func unescapeToken(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitUnescaped splits s on sep, leaving backslash escapes in place for a
// later unescapeToken pass.
func splitUnescaped(s string, sep rune) []string {
	var parts []string
	var cur strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune('\\')
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == sep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())
	return parts
}
