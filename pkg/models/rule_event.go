package models

const (
	EventTypeRuleCreated = "rule.created"

	ActionCreate = "create"
)

// RuleEvent is the payload published to the rule events topic whenever a
// rule definition changes.
type RuleEvent struct {
	RuleID     int64  `json:"rule_id"`
	RuleString string `json:"rule_string"`
	Action     string `json:"action"`
}

func (e RuleEvent) ToPayload() map[string]interface{} {
	return map[string]interface{}{
		"rule_id":     e.RuleID,
		"rule_string": e.RuleString,
		"action":      e.Action,
	}
}
