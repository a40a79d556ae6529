package ruletree

// Evaluate walks an expression tree against a data record and reduces it to a
// single boolean. Operand leaves are evaluated via substitution (see
// condition.go); operator nodes combine their children with AND/OR.
//
// Both children of an operator are always evaluated, left before right, with
// no short-circuiting: an error in either branch must surface no matter which
// side a boolean connective would have skipped, and the left error wins when
// both fail so error reporting stays deterministic.
func Evaluate(node Node, data DataRecord) (bool, error) {
	switch n := node.(type) {
	case *Operand:
		return evaluateCondition(n.Condition, data)
	case *Operator:
		left, leftErr := Evaluate(n.Left, data)
		right, rightErr := Evaluate(n.Right, data)
		if leftErr != nil {
			return false, leftErr
		}
		if rightErr != nil {
			return false, rightErr
		}
		if n.Connective == ConnectiveAnd {
			return left && right, nil
		}
		return left || right, nil
	default:
		return false, &ConditionError{Condition: node.String()}
	}
}
