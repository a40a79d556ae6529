package rules

// Rule is a stored rule definition. Rules are append-only: ids are assigned
// by the store in insertion order and rule text never changes after create.
type Rule struct {
	ID         int64  `json:"id" db:"id"`
	RuleString string `json:"rule_string" db:"rule_string"`
}

type CreateRuleRequest struct {
	RuleString string `json:"rule_string" binding:"required"`
}

type CreateRuleResponse struct {
	Message    string `json:"message"`
	ID         int64  `json:"id"`
	RuleString string `json:"rule_string"`
	Tree       string `json:"tree"`
}

type EvaluateRuleRequest struct {
	Data map[string]interface{} `json:"data"`
}

type EvaluateRuleResponse struct {
	Rule   string                 `json:"rule"`
	Data   map[string]interface{} `json:"data"`
	Result bool                   `json:"result"`
}

type CombineRulesRequest struct {
	RuleIDs   []int64 `json:"rule_ids"`
	Condition string  `json:"condition"`
}

type CombineRulesResponse struct {
	CombinedRule string `json:"combined_rule"`
}

type ListRulesResponse struct {
	Rules []Rule `json:"rules"`
	Count int    `json:"count"`
}
