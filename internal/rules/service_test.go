package rules

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulebook/internal/logger"
	pkgerrors "rulebook/pkg/errors"
)

// fakeRepository is an in-memory rule store for service tests.
type fakeRepository struct {
	rules  map[int64]string
	nextID int64
	fail   error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		rules:  make(map[int64]string),
		nextID: 1,
	}
}

func (f *fakeRepository) Create(ctx context.Context, ruleString string) (int64, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	id := f.nextID
	f.nextID++
	f.rules[id] = ruleString
	return id, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id int64) (*Rule, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	ruleString, ok := f.rules[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound.WithDetail("rule_id", id)
	}
	return &Rule{ID: id, RuleString: ruleString}, nil
}

func (f *fakeRepository) List(ctx context.Context) ([]Rule, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	rules := make([]Rule, 0, len(f.rules))
	for id := int64(1); id < f.nextID; id++ {
		if ruleString, ok := f.rules[id]; ok {
			rules = append(rules, Rule{ID: id, RuleString: ruleString})
		}
	}
	return rules, nil
}

func newTestService(repo Repository) Service {
	return NewService(repo, logger.NopLogger())
}

func TestCreateRule(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	resp, err := svc.CreateRule(context.Background(), CreateRuleRequest{
		RuleString: "age>30 AND department==Sales",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "age>30 AND department==Sales", resp.RuleString)
	assert.Equal(t, "(age>30 AND department==Sales)", resp.Tree)
	assert.NotEmpty(t, resp.Message)
}

func TestCreateRuleDegenerateEchoesOperand(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	resp, err := svc.CreateRule(context.Background(), CreateRuleRequest{
		RuleString: "not a comparison at all",
	})
	require.NoError(t, err)

	// Parse never fails; degenerate text becomes a single operand.
	assert.Equal(t, "not a comparison at all", resp.Tree)
}

func TestCreateRuleValidation(t *testing.T) {
	svc := newTestService(newFakeRepository())

	_, err := svc.CreateRule(context.Background(), CreateRuleRequest{RuleString: "   "})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestEvaluateRule(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	created, err := svc.CreateRule(context.Background(), CreateRuleRequest{
		RuleString: "age>30 AND department==Sales",
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		data map[string]interface{}
		want bool
	}{
		{
			name: "both conditions hold",
			data: map[string]interface{}{"age": float64(35), "department": "Sales"},
			want: true,
		},
		{
			name: "age too low",
			data: map[string]interface{}{"age": float64(25), "department": "Sales"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.EvaluateRule(context.Background(), created.ID, EvaluateRuleRequest{Data: tt.data})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Result)
			assert.Equal(t, "age>30 AND department==Sales", resp.Rule)
			assert.Equal(t, tt.data, resp.Data)
		})
	}
}

func TestEvaluateRuleNotFound(t *testing.T) {
	svc := newTestService(newFakeRepository())

	_, err := svc.EvaluateRule(context.Background(), 42, EvaluateRuleRequest{
		Data: map[string]interface{}{"age": float64(35)},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestEvaluateRuleInvalidCondition(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	created, err := svc.CreateRule(context.Background(), CreateRuleRequest{
		RuleString: "salary > 100000",
	})
	require.NoError(t, err)

	// No salary key in the data, so the condition compares a bare field name
	// against a number.
	_, err = svc.EvaluateRule(context.Background(), created.ID, EvaluateRuleRequest{
		Data: map[string]interface{}{"age": float64(35)},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidCondition(err))
	assert.Contains(t, err.Error(), "salary > 100000")
}

func TestEvaluateRuleNilData(t *testing.T) {
	svc := newTestService(newFakeRepository())

	_, err := svc.EvaluateRule(context.Background(), 1, EvaluateRuleRequest{Data: nil})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestCombineRules(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	r1, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "age>30"})
	require.NoError(t, err)
	r2, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "salary>50000"})
	require.NoError(t, err)

	resp, err := svc.CombineRules(ctx, CombineRulesRequest{
		RuleIDs:   []int64{r1.ID, r2.ID},
		Condition: "or",
	})
	require.NoError(t, err)
	assert.Equal(t, "(age>30) OR (salary>50000)", resp.CombinedRule)
}

func TestCombineRulesDefaultsToOr(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	r1, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "age>30"})
	require.NoError(t, err)
	r2, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "salary>50000"})
	require.NoError(t, err)

	resp, err := svc.CombineRules(ctx, CombineRulesRequest{
		RuleIDs: []int64{r1.ID, r2.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "(age>30) OR (salary>50000)", resp.CombinedRule)
}

func TestCombineRulesSkipsMissingIDs(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	r1, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "age>30"})
	require.NoError(t, err)

	resp, err := svc.CombineRules(ctx, CombineRulesRequest{
		RuleIDs:   []int64{r1.ID, 999},
		Condition: "and",
	})
	require.NoError(t, err)
	assert.Equal(t, "(age>30)", resp.CombinedRule)
}

func TestCombineRulesAllMissing(t *testing.T) {
	svc := newTestService(newFakeRepository())

	resp, err := svc.CombineRules(context.Background(), CombineRulesRequest{
		RuleIDs:   []int64{7, 8, 9},
		Condition: "and",
	})
	require.NoError(t, err)
	assert.Equal(t, "", resp.CombinedRule)
}

func TestCombineRulesEmptyInput(t *testing.T) {
	svc := newTestService(newFakeRepository())

	resp, err := svc.CombineRules(context.Background(), CombineRulesRequest{
		RuleIDs:   []int64{},
		Condition: "and",
	})
	require.NoError(t, err)
	assert.Equal(t, "", resp.CombinedRule)
}

func TestCombineRulesBadConnective(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	r1, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "age>30"})
	require.NoError(t, err)

	_, err = svc.CombineRules(ctx, CombineRulesRequest{
		RuleIDs:   []int64{r1.ID},
		Condition: "xor",
	})
	require.Error(t, err)
	assert.Equal(t, 400, pkgerrors.ToHTTPStatus(err))
	assert.Equal(t, "INVALID_ARGUMENT", pkgerrors.ToErrorResponse(err).ErrorCode)
}

func TestCombinedRuleIsNotPersisted(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	r1, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "age>30"})
	require.NoError(t, err)
	r2, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "salary>50000"})
	require.NoError(t, err)

	_, err = svc.CombineRules(ctx, CombineRulesRequest{
		RuleIDs:   []int64{r1.ID, r2.ID},
		Condition: "and",
	})
	require.NoError(t, err)

	list, err := svc.ListRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
}

func TestCombinedRuleRoundTrip(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	r1, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "age>30"})
	require.NoError(t, err)
	r2, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: "salary>50000"})
	require.NoError(t, err)

	combined, err := svc.CombineRules(ctx, CombineRulesRequest{
		RuleIDs:   []int64{r1.ID, r2.ID},
		Condition: "or",
	})
	require.NoError(t, err)

	// The combined string re-enters the same create path as any other rule.
	created, err := svc.CreateRule(ctx, CreateRuleRequest{RuleString: combined.CombinedRule})
	require.NoError(t, err)

	resp, err := svc.EvaluateRule(ctx, created.ID, EvaluateRuleRequest{
		Data: map[string]interface{}{"age": float64(25), "salary": float64(60000)},
	})
	require.NoError(t, err)
	assert.True(t, resp.Result)
}

func TestListRules(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateRule(ctx, CreateRuleRequest{
			RuleString: fmt.Sprintf("age>%d", 30+i),
		})
		require.NoError(t, err)
	}

	resp, err := svc.ListRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Count)
	require.Len(t, resp.Rules, 3)
	assert.Equal(t, int64(1), resp.Rules[0].ID)
	assert.Equal(t, "age>30", resp.Rules[0].RuleString)
}

func TestListRulesEmpty(t *testing.T) {
	svc := newTestService(newFakeRepository())

	resp, err := svc.ListRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Rules)
}

func TestCreateRuleRepositoryError(t *testing.T) {
	repo := newFakeRepository()
	repo.fail = fmt.Errorf("connection refused")
	svc := newTestService(repo)

	_, err := svc.CreateRule(context.Background(), CreateRuleRequest{RuleString: "age>30"})
	require.Error(t, err)
	assert.Equal(t, 500, pkgerrors.ToHTTPStatus(err))
}
