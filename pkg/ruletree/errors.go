package ruletree

import "fmt"

// ConditionError reports an operand whose text could not be reduced to a
// valid comparison after substitution. Condition is the original,
// pre-substitution text so the caller can point at the stored rule.
type ConditionError struct {
	Condition string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("invalid condition: %s", e.Condition)
}

// ConnectiveError reports a combine connective outside {"and", "or"}.
type ConnectiveError struct {
	Connective string
}

func (e *ConnectiveError) Error() string {
	return fmt.Sprintf("invalid connective %q: must be \"and\" or \"or\"", e.Connective)
}
