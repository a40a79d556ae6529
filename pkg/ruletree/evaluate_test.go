package ruletree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_NumericComparisons(t *testing.T) {
	data := DataRecord{"age": 35}

	tests := []struct {
		name string
		rule string
		want bool
	}{
		{name: "greater true", rule: "age > 30", want: true},
		{name: "greater false", rule: "age > 40", want: false},
		{name: "less", rule: "age < 40", want: true},
		{name: "equal", rule: "age == 35", want: true},
		{name: "not equal", rule: "age != 35", want: false},
		{name: "greater or equal", rule: "age >= 35", want: true},
		{name: "less or equal", rule: "age <= 34", want: false},
		{name: "float literal", rule: "age > 34.5", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Evaluate(Parse(tt.rule), data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestEvaluate_StringComparisons(t *testing.T) {
	data := DataRecord{"department": "Sales"}

	tests := []struct {
		name string
		rule string
		want bool
	}{
		{name: "bare literal equal", rule: "department == Sales", want: true},
		{name: "single quoted", rule: "department == 'Sales'", want: true},
		{name: "double quoted", rule: "department == \"Sales\"", want: true},
		{name: "not equal", rule: "department != Marketing", want: true},
		{name: "lexicographic", rule: "department < Zulu", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Evaluate(Parse(tt.rule), data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestEvaluate_Scenario(t *testing.T) {
	node := Parse("age>30 AND department==Sales")

	result, err := Evaluate(node, DataRecord{"age": 35, "department": "Sales"})
	require.NoError(t, err)
	assert.True(t, result)

	result, err = Evaluate(node, DataRecord{"age": 25, "department": "Sales"})
	require.NoError(t, err)
	assert.False(t, result)
}

func TestEvaluate_ConnectiveMatchesChildEvaluation(t *testing.T) {
	// evaluate(parse("A AND B")) must equal evaluate(parse(A)) && evaluate(parse(B)),
	// and the same for OR.
	data := DataRecord{"age": 35, "salary": 40000}

	conditions := []struct{ a, b string }{
		{"age>30", "salary>50000"},
		{"age>30", "salary>30000"},
		{"age>40", "salary>50000"},
	}

	for _, c := range conditions {
		a, err := Evaluate(Parse(c.a), data)
		require.NoError(t, err)
		b, err := Evaluate(Parse(c.b), data)
		require.NoError(t, err)

		andResult, err := Evaluate(Parse(c.a+" AND "+c.b), data)
		require.NoError(t, err)
		assert.Equal(t, a && b, andResult)

		orResult, err := Evaluate(Parse(c.a+" OR "+c.b), data)
		require.NoError(t, err)
		assert.Equal(t, a || b, orResult)
	}
}

func TestEvaluate_InvalidCondition(t *testing.T) {
	tests := []struct {
		name string
		rule string
		data DataRecord
	}{
		{
			name: "unmatched field against number",
			rule: "salary > 50000",
			data: DataRecord{"age": 35},
		},
		{
			name: "no operator",
			rule: "age",
			data: DataRecord{"age": 35},
		},
		{
			name: "empty condition",
			rule: "",
			data: DataRecord{"age": 35},
		},
		{
			name: "two operators",
			rule: "age > 30 > 20",
			data: DataRecord{"age": 35},
		},
		{
			name: "missing right side",
			rule: "age >",
			data: DataRecord{"age": 35},
		},
		{
			name: "unterminated quote",
			rule: "department == 'Sales",
			data: DataRecord{"department": "Sales"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(Parse(tt.rule), tt.data)
			require.Error(t, err)

			var condErr *ConditionError
			require.ErrorAs(t, err, &condErr)
			assert.Equal(t, tt.rule, condErr.Condition)
		})
	}
}

func TestEvaluate_ErrorNamesOriginalConditionText(t *testing.T) {
	// The error carries the pre-substitution text, not the substituted form.
	_, err := Evaluate(Parse("bonus > 1000"), DataRecord{"age": 35})
	require.Error(t, err)

	var condErr *ConditionError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "bonus > 1000", condErr.Condition)
	assert.Contains(t, err.Error(), "bonus > 1000")
}

func TestEvaluate_NoShortCircuit(t *testing.T) {
	// A broken right branch surfaces even when the left branch alone would
	// have decided a short-circuiting connective.
	data := DataRecord{"age": 35}

	_, err := Evaluate(Parse("age>30 OR salary>50000"), data)
	require.Error(t, err)

	var condErr *ConditionError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "salary>50000", condErr.Condition)
}

func TestEvaluate_LeftErrorWins(t *testing.T) {
	data := DataRecord{}

	_, err := Evaluate(Parse("a>1 AND b>2"), data)
	require.Error(t, err)

	var condErr *ConditionError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "a>1", condErr.Condition)
}

func TestEvaluate_ParenthesizedOperand(t *testing.T) {
	// Combined rules wrap children in parentheses; those operands must
	// evaluate identically to the bare condition.
	data := DataRecord{"age": 35}

	bare, err := Evaluate(Parse("age>30"), data)
	require.NoError(t, err)

	wrapped, err := Evaluate(&Operand{Condition: "(age>30)"}, data)
	require.NoError(t, err)
	assert.Equal(t, bare, wrapped)
}

func TestEvaluate_SubstitutionIsLongestKeyFirst(t *testing.T) {
	// "age" is a substring of "agent"; the longer key must substitute first
	// or the result would depend on map iteration order.
	data := DataRecord{"agent": "Smith", "age": 35}

	result, err := Evaluate(Parse("agent == Smith"), data)
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvaluate_ValueFormatting(t *testing.T) {
	tests := []struct {
		name string
		rule string
		data DataRecord
		want bool
	}{
		{
			name: "float formats without exponent",
			rule: "salary > 50000",
			data: DataRecord{"salary": float64(60000)},
			want: true,
		},
		{
			name: "int64 value",
			rule: "count == 7",
			data: DataRecord{"count": int64(7)},
			want: true,
		},
		{
			name: "bool value",
			rule: "active == true",
			data: DataRecord{"active": true},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Evaluate(Parse(tt.rule), tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}
