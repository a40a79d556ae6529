// Package ruletree implements the rule expression engine: parsing flat
// AND/OR rule strings into binary expression trees, evaluating trees against
// a data record, and combining rule strings into composite rules. All
// operations are pure functions over their inputs; nothing here performs I/O
// or holds state between calls.
package ruletree

type Connective string

const (
	ConnectiveAnd Connective = "AND"
	ConnectiveOr  Connective = "OR"
)

// DataRecord maps field names to the values substituted into operand
// conditions during evaluation.
type DataRecord map[string]interface{}

// Node is the expression tree. It is a closed set: an Operand leaf holding
// raw condition text, or an Operator joining two subtrees with a connective.
type Node interface {
	node()
	String() string
}

type Operand struct {
	Condition string
}

func (*Operand) node() {}

func (o *Operand) String() string {
	return o.Condition
}

type Operator struct {
	Connective Connective
	Left       Node
	Right      Node
}

func (*Operator) node() {}

func (o *Operator) String() string {
	return "(" + o.Left.String() + " " + string(o.Connective) + " " + o.Right.String() + ")"
}
