package rules

import (
	"fmt"
	"strings"
)

func ValidateCreateRule(req CreateRuleRequest) error {
	if strings.TrimSpace(req.RuleString) == "" {
		return fmt.Errorf("rule_string is required")
	}
	return nil
}

func ValidateEvaluateRule(ruleID int64, req EvaluateRuleRequest) error {
	if ruleID <= 0 {
		return fmt.Errorf("rule id must be a positive integer")
	}
	if req.Data == nil {
		return fmt.Errorf("data is required")
	}
	return nil
}

func ValidateCombineRules(req CombineRulesRequest) error {
	for _, id := range req.RuleIDs {
		if id <= 0 {
			return fmt.Errorf("rule_ids must be positive integers")
		}
	}
	return nil
}
