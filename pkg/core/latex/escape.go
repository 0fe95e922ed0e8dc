// Package latex provides escaping of free text for safe embedding in LaTeX source.
package latex

import "strings"

// replacer performs every substitution in a single pass, so the order of the
// pairs does not matter even though some targets contain braces.
var replacer = strings.NewReplacer(
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`&`, `\&`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
	"\n", " ",
)

// Special lists the characters EscapeString rewrites.
const Special = "%$#&_{}~^\n"

// EscapeString replaces LaTeX special characters with their escape sequences.
// Newlines collapse to a single space.
func EscapeString(s string) string {
	if !strings.ContainsAny(s, Special) {
		return s
	}
	return replacer.Replace(s)
}

// Escape escapes v when it is a string and returns any other value unchanged.
func Escape(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return EscapeString(s)
}

// EscapeTree walks maps and slices and escapes every string it finds.
// Map keys are left untouched.
func EscapeTree(v any) any {
	switch t := v.(type) {
	case string:
		return EscapeString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = EscapeTree(child)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = EscapeTree(child)
		}
		return out
	default:
		return v
	}
}
