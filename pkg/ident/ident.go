// Package ident converts table identifiers between the schema-qualified form
// used by SQL Server ("Sales.Currency", "[Sales].[Currency]") and the flat form
// used by MariaDB ("Sales_Currency").
//
// Forward conversion is exact. Reverse conversion is lossy: once a bare name
// contains an underscore, the qualifier boundary cannot be recovered from the
// flat string alone. Use a Registry when the original qualified names must be
// restored.
package ident

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Separator joins a qualifier and a bare name in the qualified form.
const Separator = "."

// FlatSeparator replaces Separator in the flat form.
const FlatSeparator = "_"

// ErrInvalidIdentifier is returned when an identifier is blank or contains
// characters outside letters, digits, and underscore after conversion.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ToFlat converts a qualified identifier to its flat form.
// Brackets are stripped from each component and the separator is replaced
// with an underscore. The result must satisfy IsValidFlat.
func ToFlat(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrInvalidIdentifier)
	}

	parts := strings.Split(id, Separator)
	for i, p := range parts {
		parts[i] = stripBrackets(p)
	}
	flat := strings.Join(parts, FlatSeparator)

	if !IsValidFlat(flat) {
		return "", fmt.Errorf("%w: %q converts to %q", ErrInvalidIdentifier, id, flat)
	}
	return flat, nil
}

// ToQualified converts a flat identifier back to the qualified form by
// replacing every underscore with the separator.
//
// This is lossy: ToQualified(ToFlat("dbo.Error_Log")) yields "dbo.Error.Log".
func ToQualified(flat string) string {
	return strings.ReplaceAll(flat, FlatSeparator, Separator)
}

// ExtractQualifier returns the part of id before the last separator.
// The second result is false when id has no separator.
func ExtractQualifier(id string) (string, bool) {
	s := StripBrackets(id)
	i := strings.LastIndex(s, Separator)
	if i < 0 {
		return "", false
	}
	return s[:i], true
}

// ExtractBareName returns the part of id after the last separator, or the
// whole identifier when there is none.
func ExtractBareName(id string) string {
	s := StripBrackets(id)
	if i := strings.LastIndex(s, Separator); i >= 0 {
		return s[i+len(Separator):]
	}
	return s
}

// IsValidFlat reports whether s is non-empty and made only of letters,
// digits, and underscores.
func IsValidFlat(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// StripBrackets removes bracket delimiters from every component of id.
// "[Sales].[Currency]" becomes "Sales.Currency".
func StripBrackets(id string) string {
	parts := strings.Split(id, Separator)
	for i, p := range parts {
		parts[i] = stripBrackets(p)
	}
	return strings.Join(parts, Separator)
}

func stripBrackets(part string) string {
	part = strings.TrimSpace(part)
	if len(part) >= 2 && part[0] == '[' && part[len(part)-1] == ']' {
		// ]] is the escaped form of ] inside a bracketed name
		return strings.ReplaceAll(part[1:len(part)-1], "]]", "]")
	}
	return part
}
