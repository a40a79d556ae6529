package errors

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithDetailLeavesSentinelUntouched(t *testing.T) {
	derived := ErrNotFound.WithDetail("rule_id", int64(42))

	assert.Empty(t, ErrNotFound.Details, "sentinel must stay immutable")
	assert.Equal(t, int64(42), derived.Details["rule_id"])
	assert.Equal(t, ErrNotFound.Code, derived.Code)
	assert.Equal(t, http.StatusNotFound, derived.Status)
}

func TestWithDetailCopiesDoNotShareMaps(t *testing.T) {
	base := ErrInternal.WithDetail("a", 1)
	sibling := base.WithDetail("b", 2)

	base2 := base.WithDetail("c", 3)

	assert.Equal(t, map[string]interface{}{"a": 1}, base.Details)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, sibling.Details)
	assert.Equal(t, map[string]interface{}{"a": 1, "c": 3}, base2.Details)
}

func TestWithDetailsDoesNotRetainInput(t *testing.T) {
	input := map[string]interface{}{"k": "v"}
	derived := ErrValidation.WithDetails(input)

	input["k"] = "mutated"
	input["extra"] = true

	assert.Equal(t, map[string]interface{}{"k": "v"}, derived.Details)
	assert.Empty(t, ErrValidation.Details)
}

func TestWithDetailConcurrentDerivation(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := ErrNotFound.WithDetail("rule_id", int64(n)).WithDetail("message", fmt.Sprintf("rule %d not found", n))
			assert.Equal(t, int64(n), err.Details["rule_id"])
		}(i)
	}
	wg.Wait()

	assert.Empty(t, ErrNotFound.Details)
}

func TestRecoverPanicDoesNotPolluteSentinel(t *testing.T) {
	err := RecoverPanic("boom")
	require.Error(t, err)

	appErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, true, appErr.Details["panic"])
	assert.NotEmpty(t, appErr.Details["stack_trace"])

	assert.Empty(t, ErrInternal.Details, "sentinel must stay immutable")

	resp := ToErrorResponse(ErrInternal.WithDetail("message", "something else"))
	assert.NotContains(t, resp.Details, "stack_trace")
}

func TestToErrorResponseMessageOverride(t *testing.T) {
	resp := ToErrorResponse(ErrNotFound.WithDetail("message", "rule 7 not found"))

	assert.Equal(t, "rule 7 not found", resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.ErrorCode)
}
