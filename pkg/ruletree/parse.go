package ruletree

import "strings"

// Parse converts a flat rule string into an expression tree. It never fails:
// text without a recognizable connective degenerates into a single Operand
// and any problem with it surfaces at evaluation time instead.
//
// Splitting is purely textual. The first occurrence of the substring "AND"
// wins, then "OR". There is no precedence between the two, and no token
// boundary check, so a connective embedded inside a longer word still splits.
// Stored rule strings round-trip through Parse unchanged, which is why the
// matching must stay exactly this way.
func Parse(ruleString string) Node {
	s := strings.TrimSpace(ruleString)

	if i := strings.Index(s, string(ConnectiveAnd)); i >= 0 {
		return split(s, ConnectiveAnd, i)
	}
	if i := strings.Index(s, string(ConnectiveOr)); i >= 0 {
		return split(s, ConnectiveOr, i)
	}

	return &Operand{Condition: s}
}

func split(s string, conn Connective, at int) *Operator {
	left := strings.TrimSpace(s[:at])
	right := strings.TrimSpace(s[at+len(conn):])

	return &Operator{
		Connective: conn,
		Left:       Parse(left),
		Right:      Parse(right),
	}
}
