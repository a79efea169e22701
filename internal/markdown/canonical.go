package markdown

import "regexp"

// Stored text written by older clients may still carry artifacts that the
// encoder no longer produces. Canonicalize rewrites them to the current
// token grammar.

var (
	legacyVariableRe  = regexp.MustCompile(`\{\{([^{}\n]+)\}\}\[variable_name:[^\]\n]*\]`)
	legacyMentionRe   = regexp.MustCompile(`\[+@?([^\[\]|\n]+)\|(\d+)\]+`)
	legacyEmptyItemRe = regexp.MustCompile(`\n?\[clist:[\w-]+\|[\w-]+\]\s*\[/clist\]`)
)

// Canonicalize applies the legacy fix-ups in order: it collapses
// {{name}}[variable_name:...] to {{name}}, rewrites bracket-wrapped
// [@name|id] mentions to [name|id], and removes empty checklist items.
func Canonicalize(s string) string {
	s = legacyVariableRe.ReplaceAllString(s, "{{$1}}")
	s = legacyMentionRe.ReplaceAllString(s, "[$1|$2]")
	s = legacyEmptyItemRe.ReplaceAllString(s, "")
	return s
}
