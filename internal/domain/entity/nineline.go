package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// The 9-Line validator works on the raw decoded JSON document so it can
// report every type violation in one pass instead of failing on the first
// bad field at bind time. Required fields, per-field types and coded-value
// sets all come from the catalog's nineLineFields.

// ValidateNineLine checks a candidate 9-Line document and returns every
// violation found. In strict mode all required fields must be present and
// non-empty; in lenient mode only supplied fields are checked. Unknown extra
// fields are ignored. A nil or empty result means the document is valid.
func ValidateNineLine(doc map[string]any, strict bool) []string {
	if doc == nil {
		return []string{"nine_line must be a non-null object"}
	}

	var violations []string

	if strict {
		for _, f := range nineLineFields {
			if !f.Required {
				continue
			}
			v, ok := doc[f.Key]
			if !ok || v == nil || v == "" {
				violations = append(violations, fmt.Sprintf("missing required field: %s", f.Key))
			}
		}
	}

	for _, f := range nineLineFields {
		v, ok := doc[f.Key]
		if !ok || v == nil {
			continue
		}

		switch f.Type {
		case "string":
			if _, isStr := v.(string); !isStr {
				violations = append(violations, fmt.Sprintf("%s must be a string", f.Key))
			}
		case "number":
			if !isNumeric(v) {
				violations = append(violations, fmt.Sprintf("%s must be a number", f.Key))
			}
		}

		if len(f.Codes) == 0 {
			continue
		}
		code, isStr := v.(string)
		if isStr {
			code = strings.ToUpper(code)
		}
		if _, allowed := f.Codes[code]; !allowed {
			violations = append(violations,
				fmt.Sprintf("%s: invalid value %q, allowed: %s", f.Key, v, allowedCodes(f)))
		}
	}

	return violations
}

// NormalizeNineLine upper-cases every coded field in place and returns the
// document. Call only after validation has accepted it.
func NormalizeNineLine(doc map[string]any) map[string]any {
	for _, f := range nineLineFields {
		if len(f.Codes) == 0 {
			continue
		}
		if s, ok := doc[f.Key].(string); ok {
			doc[f.Key] = strings.ToUpper(s)
		}
	}
	return doc
}

func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int32, int64, json.Number:
		return true
	}
	return false
}

func allowedCodes(f NineLineField) string {
	keys := make([]string, 0, len(f.Codes))
	for _, c := range []string{"A", "B", "C", "D", "E", "N", "P", "X"} {
		if _, ok := f.Codes[c]; ok {
			keys = append(keys, c)
		}
	}
	return strings.Join(keys, ", ")
}
