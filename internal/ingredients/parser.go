package ingredients

import (
	"strings"

	"github.com/shopspring/decimal"
)

const separator = "-"

// Parse reads one ingredient line. It accepts "name - quantity unit" and
// "quantity unit name..." and never fails: anything it cannot read becomes a
// single piece of an item named after the input.
//
// A spaced separator (" - ") makes the first shape win; otherwise the leading
// quantity shape is tried first so "2 adet omega-3" keeps its name.
func Parse(raw string) Line {
	text := strings.TrimSpace(raw)
	if text == "" {
		return fallback("")
	}

	shapes := []func(string) (Line, bool){parseLeadingQuantity, parseSeparated}
	if hasSpacedSeparator(text) {
		shapes = []func(string) (Line, bool){parseSeparated, parseLeadingQuantity}
	}
	for _, shape := range shapes {
		if line, ok := shape(text); ok {
			return line
		}
	}
	if name, _, found := strings.Cut(text, separator); found && strings.TrimSpace(name) != "" {
		return fallback(name)
	}
	return fallback(text)
}

// ParseAll parses every non-blank line.
func ParseAll(raws []string) []Line {
	lines := make([]Line, 0, len(raws))
	for _, raw := range raws {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		lines = append(lines, Parse(raw))
	}
	return lines
}

func hasSpacedSeparator(text string) bool {
	fields := strings.Fields(text)
	for _, f := range fields[1:] {
		if f == separator {
			return true
		}
	}
	return false
}

// parseSeparated handles "name - quantity unit". Hyphens are tried from the
// right so names like "sun-dried tomato" or "omega-3 oil" keep their own.
func parseSeparated(text string) (Line, bool) {
	for idx := strings.LastIndex(text, separator); idx >= 0; idx = strings.LastIndex(text[:idx], separator) {
		name := strings.TrimSpace(text[:idx])
		if name == "" || strings.HasSuffix(name, separator) {
			continue
		}
		rest := strings.Fields(text[idx+len(separator):])
		if len(rest) == 0 {
			continue
		}
		qty, ok := parseQuantity(rest[0])
		if !ok {
			continue
		}
		unit := DefaultUnit
		if len(rest) > 1 {
			unit = strings.Join(rest[1:], " ")
		}
		return Line{Name: NormalizeName(name), Quantity: qty, Unit: normalizeUnit(unit)}, true
	}
	return Line{}, false
}

// parseLeadingQuantity handles "quantity unit name...".
func parseLeadingQuantity(text string) (Line, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return Line{}, false
	}
	qty, ok := parseQuantity(fields[0])
	if !ok {
		return Line{}, false
	}
	if len(fields) == 2 {
		return Line{Name: NormalizeName(fields[1]), Quantity: qty, Unit: DefaultUnit}, true
	}
	return Line{
		Name:     NormalizeName(strings.Join(fields[2:], " ")),
		Quantity: qty,
		Unit:     normalizeUnit(fields[1]),
	}, true
}

// parseQuantity accepts decimals with a dot or comma and simple fractions.
// Negative values and values that do not fit storage are rejected.
func parseQuantity(token string) (decimal.Decimal, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return decimal.Zero, false
	}

	if num, den, found := strings.Cut(token, "/"); found {
		n, okN := parseDecimal(num)
		d, okD := parseDecimal(den)
		if !okN || !okD || d.IsZero() {
			return decimal.Zero, false
		}
		return NormalizeQuantity(n.Div(d))
	}
	return parseDecimal(token)
}

func parseDecimal(token string) (decimal.Decimal, bool) {
	if strings.Count(token, ",") == 1 && !strings.Contains(token, ".") {
		token = strings.Replace(token, ",", ".", 1)
	}
	if token == "" || strings.ContainsAny(token, "eE+") {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Zero, false
	}
	return NormalizeQuantity(value)
}
