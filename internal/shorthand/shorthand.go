// Package shorthand converts between the compact measurement text workers
// type into order rows (e.g. `100*50*10`, `φ20*30`, `φ60-40*15`) and a
// structured measurement set. Each part type has its own grammar; both
// directions are total functions so a half-typed cell never produces an
// error, only an empty result.
package shorthand

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kajiwara-mfg/tetsuba/internal/formula"
)

const (
	num  = `(-?(?:\d+(?:\.\d+)?|\.\d+))`
	mark = `[φΦ⌀øØ]`
)

// grammar is one part type's shorthand syntax: an anchored pattern whose
// capture groups line up with keys/aliases, and a layout for encoding.
type grammar struct {
	keys    []string // canonical keys in positional order
	aliases []string // legacy positional aliases carried for old formulas
	pattern *regexp.Regexp
	prefix  string   // diameter mark for round-ish types
	joiners []string // separator printed before position 1..n-1
}

var grammars = map[string]grammar{
	"plate": {
		keys:    []string{"length", "width", "height"},
		aliases: []string{"A", "B", "C"},
		pattern: regexp.MustCompile(`^` + num + `\*` + num + `\*` + num + `$`),
		joiners: []string{"*", "*"},
	},
	"sawn-square": {
		keys:    []string{"length", "width", "height"},
		aliases: []string{"A", "B", "C"},
		pattern: regexp.MustCompile(`^` + num + `\*` + num + `\*` + num + `$`),
		joiners: []string{"*", "*"},
	},
	"round-bar": {
		keys:    []string{"diameter", "height"},
		aliases: []string{"A", "B"},
		pattern: regexp.MustCompile(`^` + mark + num + `\*` + num + `$`),
		prefix:  "φ",
		joiners: []string{"*"},
	},
	"disc-from-plate": {
		keys:    []string{"diameter", "thickness"},
		aliases: []string{"A", "B"},
		pattern: regexp.MustCompile(`^` + mark + num + `\*` + num + `$`),
		prefix:  "φ",
		joiners: []string{"*"},
	},
	"ring": {
		keys:    []string{"outerDiameter", "innerDiameter", "height"},
		aliases: []string{"A", "B", "C"},
		pattern: regexp.MustCompile(`^` + mark + num + `-` + num + `\*` + num + `$`),
		prefix:  "φ",
		joiners: []string{"-", "*"},
	},
	"tube": {
		keys:    []string{"outerDiameter", "innerDiameter", "length"},
		aliases: []string{"A", "B", "C"},
		pattern: regexp.MustCompile(`^` + mark + num + `-` + num + `\*` + num + `$`),
		prefix:  "φ",
		joiners: []string{"-", "*"},
	},
}

// Decode parses shorthand text for the given part type. A pattern mismatch
// returns an empty set, never an error. Full-width punctuation and digits
// are normalized before matching; negative or non-finite tokens are treated
// as absent so the evaluator can tell "typed 0" from "typed nothing".
func Decode(text, partType string) formula.Measurements {
	norm := strings.TrimSpace(formula.NormalizeWidth(text))

	g, ok := grammars[partType]
	if !ok {
		return decodeGeneric(norm)
	}

	groups := g.pattern.FindStringSubmatch(norm)
	if groups == nil {
		return formula.Measurements{}
	}

	m := formula.Measurements{}
	for i, raw := range groups[1:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || !usable(v) {
			continue
		}
		m[g.keys[i]] = v
		m[g.aliases[i]] = v
	}
	return m
}

// Encode renders the measurement set in the part type's shorthand. If any
// required key is absent (or unusable) it returns "", so a partially-formed
// string is never shown.
func Encode(m formula.Measurements, partType string) string {
	g, ok := grammars[partType]
	if !ok {
		return encodeGeneric(m)
	}

	var b strings.Builder
	b.WriteString(g.prefix)
	for i, key := range g.keys {
		v, ok := m[key]
		if !ok || !usable(v) {
			return ""
		}
		if i > 0 {
			b.WriteString(g.joiners[i-1])
		}
		b.WriteString(formatNum(v))
	}
	return b.String()
}

// decodeGeneric handles part types without a dedicated grammar using
// `key:value,key:value,...`. Any malformed pair empties the whole result.
func decodeGeneric(text string) formula.Measurements {
	if text == "" {
		return formula.Measurements{}
	}
	m := formula.Measurements{}
	for _, pair := range strings.Split(text, ",") {
		key, raw, ok := strings.Cut(strings.TrimSpace(pair), ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return formula.Measurements{}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return formula.Measurements{}
		}
		if !usable(v) {
			continue
		}
		m[key] = v
	}
	return m
}

func encodeGeneric(m formula.Measurements) string {
	var parts []string
	// Vocabulary order keeps the output stable and readable.
	for _, key := range formula.VariableNames {
		if v, ok := m[key]; ok && usable(v) {
			parts = append(parts, key+":"+formatNum(v))
		}
	}
	return strings.Join(parts, ",")
}

// usable reports whether a parsed token counts as a present measurement.
func usable(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
