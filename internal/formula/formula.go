// Package formula evaluates per-part-type volume formulas against a set of
// named measurements. Formulas are authored by admins with multi-character
// variable names (length, diameter, ...) and may use full-width arithmetic
// glyphs; evaluation is total and degrades every failure to volume 0 because
// callers re-run it on each keystroke of a live input field.
package formula

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Measurements maps a variable name to a value in millimeters. Keys are the
// canonical vocabulary below plus legacy positional aliases (A, B, C, ...)
// still referenced by older catalog formulas.
type Measurements map[string]float64

// VariableNames is the canonical variable vocabulary, in display order.
// ExtractVariableNames reports names in this order.
var VariableNames = []string{
	"length",
	"width",
	"height",
	"thickness",
	"diameter",
	"outerDiameter",
	"innerDiameter",
	"radius",
	"outerRadius",
	"innerRadius",
}

const piLiteral = "3.141592653589793"

// glyphReplacer maps arithmetic glyphs that width folding does not cover.
var glyphReplacer = strings.NewReplacer(
	"×", "*",
	"÷", "/",
	"∗", "*",
	"−", "-",
)

// diameterMarks are shorthand prefixes that may leak into formulas or
// measurement text; they carry no arithmetic meaning.
var diameterMarks = []string{"φ", "Φ", "⌀", "ø", "Ø"}

// NormalizeWidth folds full-width digits and punctuation (＊ － （ ） １ ...)
// to their ASCII forms and maps arithmetic glyphs (×, ÷) to Go-style
// operators. Shared by the shorthand codec and the evaluator.
func NormalizeWidth(s string) string {
	return glyphReplacer.Replace(width.Narrow.String(s))
}

// normalizeFormula prepares admin-authored formula text for evaluation:
// width folding, superscript square, pi, and stray diameter marks.
func normalizeFormula(f string) string {
	s := NormalizeWidth(f)
	s = strings.ReplaceAll(s, "²", "**2")
	s = strings.ReplaceAll(s, "π", piLiteral)
	s = strings.ReplaceAll(s, "pi", piLiteral)
	for _, mark := range diameterMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	return strings.TrimSpace(s)
}

// ExtractVariableNames returns the canonical variable names a formula
// references, in vocabulary order. It is used to prompt for required inputs,
// not to drive evaluation.
func ExtractVariableNames(f string) []string {
	s := normalizeFormula(f)
	var names []string
	for _, name := range VariableNames {
		if strings.Contains(s, name) {
			names = append(names, name)
		}
	}
	return names
}

// Evaluate computes the volume for formula against m, in mm³. It never
// fails: a missing variable, malformed formula, or non-finite result yields
// 0, with the reason logged at debug level.
func Evaluate(f string, m Measurements) float64 {
	v, err := evaluate(f, m)
	if err != nil {
		slog.Debug("volume formula degraded to zero", "formula", f, "err", err)
		return 0
	}
	return v
}

func evaluate(f string, m Measurements) (float64, error) {
	expr := normalizeFormula(f)
	if expr == "" {
		return 0, errors.New("empty formula")
	}

	vals := withDerived(m)

	// Every vocabulary name the formula mentions must resolve; a formula
	// must never silently consume a default value.
	for _, name := range VariableNames {
		if strings.Contains(expr, name) {
			if _, ok := vals[name]; !ok {
				return 0, fmt.Errorf("unresolved variable %q", name)
			}
		}
	}

	// Longer names first, so innerDiameter is never clipped by diameter.
	for _, name := range substitutionOrder(vals) {
		expr = strings.ReplaceAll(expr, name, strconv.FormatFloat(vals[name], 'f', -1, 64))
	}

	out, err := evalExpr(expr)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, errors.New("non-finite result")
	}
	return out, nil
}

// withDerived copies m and fills in radii from diameters when the radius is
// absent but its diameter is present.
func withDerived(m Measurements) Measurements {
	vals := make(Measurements, len(m)+3)
	for k, v := range m {
		vals[k] = v
	}
	derive := func(radius, diameter string) {
		if _, ok := vals[radius]; ok {
			return
		}
		if d, ok := vals[diameter]; ok {
			vals[radius] = d / 2
		}
	}
	derive("radius", "diameter")
	derive("outerRadius", "outerDiameter")
	derive("innerRadius", "innerDiameter")
	return vals
}

func substitutionOrder(vals Measurements) []string {
	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}
