package rules

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"rulebook/internal/constants"
	"rulebook/internal/logger"
	pkgerrors "rulebook/pkg/errors"
	"rulebook/pkg/metrics"
	"rulebook/pkg/ruletree"
	"rulebook/pkg/tracing"
)

type Service interface {
	CreateRule(ctx context.Context, req CreateRuleRequest) (*CreateRuleResponse, error)
	EvaluateRule(ctx context.Context, ruleID int64, req EvaluateRuleRequest) (*EvaluateRuleResponse, error)
	CombineRules(ctx context.Context, req CombineRulesRequest) (*CombineRulesResponse, error)
	ListRules(ctx context.Context) (*ListRulesResponse, error)
}

type service struct {
	repo   Repository
	events *RuleEventProducer
	logger logger.Logger
}

type ServiceOption func(*service)

func WithRuleEvents(events *RuleEventProducer) ServiceOption {
	return func(s *service) {
		s.events = events
	}
}

func NewService(repo Repository, log logger.Logger, opts ...ServiceOption) Service {
	s := &service{
		repo:   repo,
		logger: log,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *service) CreateRule(ctx context.Context, req CreateRuleRequest) (*CreateRuleResponse, error) {
	ctx, span := tracing.GetTracer("rule-service").Start(ctx, "rules.create")
	defer span.End()

	if err := ValidateCreateRule(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation).WithDetail("message", err.Error())
	}

	// Parse never fails: degenerate input lands in a single operand and is
	// echoed back as-is.
	tree := ruletree.Parse(req.RuleString)

	id, err := s.repo.Create(ctx, req.RuleString)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	metrics.RulesCreatedTotal.Inc()

	if s.events != nil {
		// Best effort: a broker outage must not fail the create.
		if err := s.events.PublishRuleCreated(ctx, Rule{ID: id, RuleString: req.RuleString}); err != nil {
			s.logger.WarnwCtx(ctx, "Failed to publish rule.created event",
				"error", err,
				"rule_id", id,
			)
		}
	}

	return &CreateRuleResponse{
		Message:    "rule created successfully",
		ID:         id,
		RuleString: req.RuleString,
		Tree:       tree.String(),
	}, nil
}

func (s *service) EvaluateRule(ctx context.Context, ruleID int64, req EvaluateRuleRequest) (*EvaluateRuleResponse, error) {
	ctx, span := tracing.GetTracer("rule-service").Start(ctx, "rules.evaluate")
	defer span.End()

	if err := ValidateEvaluateRule(ruleID, req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation).WithDetail("message", err.Error())
	}

	rule, err := s.repo.GetByID(ctx, ruleID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.ErrNotFound.WithDetail("message", "rule "+strconv.FormatInt(ruleID, 10)+" not found")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	start := time.Now()
	result, err := ruletree.Evaluate(ruletree.Parse(rule.RuleString), req.Data)
	if err != nil {
		metrics.IncRuleEvaluation("error")
		metrics.ObserveRuleEvaluationDuration(time.Since(start), "error")

		var condErr *ruletree.ConditionError
		if errors.As(err, &condErr) {
			return nil, pkgerrors.ErrInvalidCondition.
				WithCause(err).
				WithDetail("message", condErr.Error()).
				WithDetail("condition", condErr.Condition)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	resultLabel := strconv.FormatBool(result)
	metrics.IncRuleEvaluation(resultLabel)
	metrics.ObserveRuleEvaluationDuration(time.Since(start), resultLabel)

	return &EvaluateRuleResponse{
		Rule:   rule.RuleString,
		Data:   req.Data,
		Result: result,
	}, nil
}

func (s *service) CombineRules(ctx context.Context, req CombineRulesRequest) (*CombineRulesResponse, error) {
	ctx, span := tracing.GetTracer("rule-service").Start(ctx, "rules.combine")
	defer span.End()

	if err := ValidateCombineRules(req); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrValidation).WithDetail("message", err.Error())
	}

	connective := req.Condition
	if connective == "" {
		connective = constants.DefaultCombineConnective
	}

	// Ids that resolve to nothing are dropped without complaint; combining
	// is advisory and never fails on a stale id.
	var ruleStrings []string
	for _, id := range req.RuleIDs {
		rule, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				s.logger.DebugwCtx(ctx, "Skipping missing rule in combine", "rule_id", id)
				continue
			}
			return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
		}
		ruleStrings = append(ruleStrings, rule.RuleString)
	}

	combined, err := ruletree.Combine(ruleStrings, connective)
	if err != nil {
		var connErr *ruletree.ConnectiveError
		if errors.As(err, &connErr) {
			return nil, pkgerrors.ErrInvalidArgument.
				WithCause(err).
				WithDetail("message", connErr.Error()).
				WithDetail("connective", connErr.Connective)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	metrics.RuleCombinationsTotal.WithLabelValues(strings.ToLower(connective)).Inc()

	return &CombineRulesResponse{CombinedRule: combined}, nil
}

func (s *service) ListRules(ctx context.Context) (*ListRulesResponse, error) {
	ctx, span := tracing.GetTracer("rule-service").Start(ctx, "rules.list")
	defer span.End()

	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	if rules == nil {
		rules = []Rule{}
	}

	return &ListRulesResponse{
		Rules: rules,
		Count: len(rules),
	}, nil
}
