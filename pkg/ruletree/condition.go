package ruletree

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

type compOperator string

const (
	opGreaterEq compOperator = ">="
	opLessEq    compOperator = "<="
	opEqual     compOperator = "=="
	opNotEqual  compOperator = "!="
	opGreater   compOperator = ">"
	opLess      compOperator = "<"
)

// Two-character operators come first so ">=" is never read as ">" with a
// stray "=" left in the term.
var compOperators = []compOperator{opGreaterEq, opLessEq, opEqual, opNotEqual, opGreater, opLess}

var errMalformed = errors.New("malformed comparison")

// evaluateCondition reduces one operand to a boolean. All whitespace is
// stripped from the condition text, every data key is textually substituted
// with its value, and the remaining text must then be exactly one
// <term><op><term> comparison over literals. Identifiers, calls and nesting
// are rejected; any failure is reported as a ConditionError carrying the
// original condition text.
func evaluateCondition(condition string, data DataRecord) (bool, error) {
	text := stripWhitespace(condition)
	text = substitute(text, data)
	text = unwrapParens(text)

	left, op, right, err := splitComparison(text)
	if err != nil {
		return false, &ConditionError{Condition: condition}
	}

	lt, err := parseTerm(left)
	if err != nil {
		return false, &ConditionError{Condition: condition}
	}
	rt, err := parseTerm(right)
	if err != nil {
		return false, &ConditionError{Condition: condition}
	}

	result, err := compare(lt, rt, op)
	if err != nil {
		return false, &ConditionError{Condition: condition}
	}
	return result, nil
}

// unwrapParens strips enclosing parenthesis pairs around a comparison.
// Combined rules wrap each child in one pair of parentheses, so "(age>30)"
// must evaluate exactly like "age>30" after re-parsing a composite rule.
func unwrapParens(s string) string {
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' && closesAtEnd(s) {
		s = s[1 : len(s)-1]
	}
	return s
}

// closesAtEnd reports whether the opening paren at position 0 is matched by
// the closing paren at the final position.
func closesAtEnd(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// substitute replaces every textual occurrence of each data key with the
// string form of its value. Keys are applied longest first (ties broken
// lexicographically) so the result never depends on map iteration order.
func substitute(text string, data DataRecord) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		text = strings.ReplaceAll(text, k, formatValue(data[k]))
	}
	return text
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// splitComparison finds the single comparison operator in text, skipping
// anything inside quotes. Exactly one operator must be present, with
// non-empty text on both sides.
func splitComparison(text string) (string, compOperator, string, error) {
	i, op := findOperator(text)
	if op == "" {
		return "", "", "", errMalformed
	}

	left := text[:i]
	right := text[i+len(op):]
	if left == "" || right == "" {
		return "", "", "", errMalformed
	}
	if j, _ := findOperator(right); j >= 0 {
		return "", "", "", errMalformed
	}
	return left, op, right, nil
}

func findOperator(text string) (int, compOperator) {
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '\'' || c == '"' {
			quote = c
			continue
		}
		for _, op := range compOperators {
			if strings.HasPrefix(text[i:], string(op)) {
				return i, op
			}
		}
	}
	return -1, ""
}

type term struct {
	str     string
	num     float64
	numeric bool
}

// parseTerm classifies one side of a comparison. Quoted text and numbers are
// what they look like; any other bare text is a string literal, so a field
// name that was never substituted compares as a plain string.
func parseTerm(s string) (term, error) {
	if s == "" {
		return term{}, errMalformed
	}

	if s[0] == '\'' || s[0] == '"' {
		if len(s) < 2 || s[len(s)-1] != s[0] {
			return term{}, errMalformed
		}
		inner := s[1 : len(s)-1]
		if strings.IndexByte(inner, s[0]) >= 0 {
			return term{}, errMalformed
		}
		return term{str: inner}, nil
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return term{num: n, numeric: true}, nil
	}

	if strings.ContainsAny(s, "()<>=!'\"") {
		return term{}, errMalformed
	}
	return term{str: s}, nil
}

func compare(left, right term, op compOperator) (bool, error) {
	if left.numeric != right.numeric {
		return false, errMalformed
	}

	if left.numeric {
		switch op {
		case opEqual:
			return left.num == right.num, nil
		case opNotEqual:
			return left.num != right.num, nil
		case opGreater:
			return left.num > right.num, nil
		case opLess:
			return left.num < right.num, nil
		case opGreaterEq:
			return left.num >= right.num, nil
		case opLessEq:
			return left.num <= right.num, nil
		}
		return false, errMalformed
	}

	cmp := strings.Compare(left.str, right.str)
	switch op {
	case opEqual:
		return cmp == 0, nil
	case opNotEqual:
		return cmp != 0, nil
	case opGreater:
		return cmp > 0, nil
	case opLess:
		return cmp < 0, nil
	case opGreaterEq:
		return cmp >= 0, nil
	case opLessEq:
		return cmp <= 0, nil
	}
	return false, errMalformed
}
