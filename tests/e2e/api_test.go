package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulebook/internal/rules"
)

var ruleServiceURL = serviceURL()

func serviceURL() string {
	if url := os.Getenv("RULE_SERVICE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// skipIfUnreachable skips the test when no running service answers on /health.
func skipIfUnreachable(t *testing.T) {
	t.Helper()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("%s/health", ruleServiceURL))
	if err != nil {
		t.Skipf("rule service not reachable at %s: %v", ruleServiceURL, err)
	}
	resp.Body.Close()
}

func TestHealthEndpoint(t *testing.T) {
	skipIfUnreachable(t)

	resp, err := http.Get(fmt.Sprintf("%s/health", ruleServiceURL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&health)
	require.NoError(t, err)
	assert.NotNil(t, health["status"])
}

func TestRuleLifecycle(t *testing.T) {
	skipIfUnreachable(t)

	created := createRule(t, "age > 30 AND department == 'Sales'")
	assert.Positive(t, created.ID)
	assert.Equal(t, "age > 30 AND department == 'Sales'", created.RuleString)
	assert.NotEmpty(t, created.Tree)

	list := listRules(t)
	assert.GreaterOrEqual(t, list.Count, 1)
	found := false
	for _, r := range list.Rules {
		if r.ID == created.ID {
			found = true
			assert.Equal(t, created.RuleString, r.RuleString)
		}
	}
	assert.True(t, found, "created rule should be in the list")

	result := evaluateRule(t, created.ID, map[string]interface{}{
		"age":        35,
		"department": "Sales",
	})
	assert.True(t, result.Result)
	assert.Equal(t, created.RuleString, result.Rule)

	result = evaluateRule(t, created.ID, map[string]interface{}{
		"age":        25,
		"department": "Sales",
	})
	assert.False(t, result.Result)
}

func TestCombineRules(t *testing.T) {
	skipIfUnreachable(t)

	r1 := createRule(t, "age>30")
	r2 := createRule(t, "salary>50000")

	combined := combineRules(t, []int64{r1.ID, r2.ID}, "and")
	assert.Equal(t, fmt.Sprintf("(%s) AND (%s)", r1.RuleString, r2.RuleString), combined.CombinedRule)

	// Default connective is OR.
	combined = combineRules(t, []int64{r1.ID, r2.ID}, "")
	assert.Equal(t, fmt.Sprintf("(%s) OR (%s)", r1.RuleString, r2.RuleString), combined.CombinedRule)
}

func TestEvaluateMissingRule(t *testing.T) {
	skipIfUnreachable(t)

	body, err := json.Marshal(rules.EvaluateRuleRequest{
		Data: map[string]interface{}{"age": 40},
	})
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/rules/99999999/evaluate", ruleServiceURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	errResp := decodeError(t, resp)
	assert.Equal(t, "NOT_FOUND", errResp["error_code"])
}

func TestCreateRuleValidation(t *testing.T) {
	skipIfUnreachable(t)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/rules", ruleServiceURL),
		"application/json",
		bytes.NewBufferString(`{"rule_string": ""}`),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCombineRulesRejectsUnknownConnective(t *testing.T) {
	skipIfUnreachable(t)

	r1 := createRule(t, "age>30")

	body, err := json.Marshal(rules.CombineRulesRequest{
		RuleIDs:   []int64{r1.ID},
		Condition: "xor",
	})
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/rules/combine", ruleServiceURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errResp := decodeError(t, resp)
	assert.Equal(t, "INVALID_ARGUMENT", errResp["error_code"])
}

func createRule(t *testing.T, ruleString string) rules.CreateRuleResponse {
	t.Helper()

	body, err := json.Marshal(rules.CreateRuleRequest{RuleString: ruleString})
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/rules", ruleServiceURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created rules.CreateRuleResponse
	err = json.NewDecoder(resp.Body).Decode(&created)
	require.NoError(t, err)

	return created
}

func listRules(t *testing.T) rules.ListRulesResponse {
	t.Helper()

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/rules", ruleServiceURL))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list rules.ListRulesResponse
	err = json.NewDecoder(resp.Body).Decode(&list)
	require.NoError(t, err)

	return list
}

func evaluateRule(t *testing.T, id int64, data map[string]interface{}) rules.EvaluateRuleResponse {
	t.Helper()

	body, err := json.Marshal(rules.EvaluateRuleRequest{Data: data})
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/rules/%d/evaluate", ruleServiceURL, id),
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result rules.EvaluateRuleResponse
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)

	return result
}

func combineRules(t *testing.T, ids []int64, condition string) rules.CombineRulesResponse {
	t.Helper()

	body, err := json.Marshal(rules.CombineRulesRequest{RuleIDs: ids, Condition: condition})
	require.NoError(t, err)

	resp, err := http.Post(
		fmt.Sprintf("%s/api/v1/rules/combine", ruleServiceURL),
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var combined rules.CombineRulesResponse
	err = json.NewDecoder(resp.Body).Decode(&combined)
	require.NoError(t, err)

	return combined
}

func decodeError(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var errResp map[string]interface{}
	err := json.NewDecoder(resp.Body).Decode(&errResp)
	require.NoError(t, err)

	return errResp
}
