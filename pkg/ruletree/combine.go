package ruletree

import "strings"

// Combine joins multiple rule strings into one composite rule string. Each
// input is wrapped in a single pair of parentheses so its meaning survives the
// parser's non-precedence-aware splitting when the composite is re-parsed,
// then the parts are joined with the uppercase space-padded connective.
//
// Input order is preserved and nothing is deduplicated or simplified. An
// empty input yields an empty string. The connective must be "and" or "or"
// (case-insensitive); anything else is a ConnectiveError.
func Combine(ruleStrings []string, connective string) (string, error) {
	var sep string
	switch strings.ToLower(connective) {
	case "and":
		sep = " " + string(ConnectiveAnd) + " "
	case "or":
		sep = " " + string(ConnectiveOr) + " "
	default:
		return "", &ConnectiveError{Connective: connective}
	}

	parts := make([]string, len(ruleStrings))
	for i, rs := range ruleStrings {
		parts[i] = "(" + rs + ")"
	}
	return strings.Join(parts, sep), nil
}
