// Package sqlfix repairs a known class of formatting defects in generated
// SQL before validation. It is a best-effort text transform, not a parser,
// and is kept strictly separate from the safety gate.
package sqlfix

import (
	"regexp"
	"strings"
)

var (
	// The model sometimes glues a quoted identifier to the following
	// clause keyword with a hyphen: `'recife'-LIMIT 5`.
	quoteGluedClause = regexp.MustCompile(`(?i)(['"` + "`" + `])-(group|order|having|limit)`)
	// Same defect without the quote: `valor-ORDER BY periodo`.
	gluedClause = regexp.MustCompile(`(?i)(\S)-(group|order|having|limit)`)
	// Whitespace before the terminating semicolon.
	spacedSemicolon = regexp.MustCompile(`\s+;`)
)

// Normalize applies the repair rules. It is idempotent: re-applying to
// already-correct SQL is a no-op.
func Normalize(sqlText string) string {
	out := stripMarkdownFence(sqlText)
	out = quoteGluedClause.ReplaceAllString(out, "$1\n$2")
	out = gluedClause.ReplaceAllString(out, "$1 $2")
	out = spacedSemicolon.ReplaceAllString(out, ";")
	return strings.TrimSpace(out)
}

func stripMarkdownFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
