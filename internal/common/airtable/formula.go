package airtable

import "strings"

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Quote renders s as a single-quoted formula string literal.
func Quote(s string) string {
	return "'" + quoteReplacer.Replace(s) + "'"
}

// Eq renders {field}='value'.
func Eq(field, value string) string {
	return "{" + field + "}=" + Quote(value)
}

// Contains renders FIND('value', {field})>0.
func Contains(field, value string) string {
	return "FIND(" + Quote(value) + ", {" + field + "})>0"
}

// And joins conditions. A single condition is returned unwrapped.
func And(conds ...string) string {
	var nonEmpty []string
	for _, c := range conds {
		if c != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return ""
	case 1:
		return nonEmpty[0]
	default:
		return "AND(" + strings.Join(nonEmpty, ", ") + ")"
	}
}
