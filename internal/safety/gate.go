// Package safety gates statements before execution. The checks are strict,
// auditable predicates over the raw text: a prefix allow-list and a keyword
// denylist, applied both to the user's question (cheap, early) and to the
// generated SQL (authoritative, right before execution). A statement that
// fails either check is never executed and never cached.
package safety

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotReadOnly = errors.New("statement is not read-only")

var ErrForbiddenOperation = errors.New("forbidden operation")

// Fixed literals, part of the contract rather than configuration.
var (
	allowedPrefixes   = []string{"select", "with"}
	forbiddenKeywords = []string{"delete", "drop", "remove", "update", "insert", "shutdown", "kill"}
)

// CheckQuestion rejects questions that mention a denylisted keyword before
// any model call is made.
func CheckQuestion(question string) error {
	if keyword, found := findForbiddenKeyword(question); found {
		return fmt.Errorf("%w: question contains %q", ErrForbiddenOperation, keyword)
	}
	return nil
}

// CheckSQL is the authoritative gate over the generated statement.
func CheckSQL(sqlText string) error {
	trimmed := strings.ToLower(strings.TrimSpace(sqlText))
	allowed := false
	for _, prefix := range allowedPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: statement must start with SELECT or WITH", ErrNotReadOnly)
	}
	if keyword, found := findForbiddenKeyword(sqlText); found {
		return fmt.Errorf("%w: statement contains %q", ErrForbiddenOperation, keyword)
	}
	return nil
}

func findForbiddenKeyword(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, keyword := range forbiddenKeywords {
		if strings.Contains(lowered, keyword) {
			return keyword, true
		}
	}
	return "", false
}
