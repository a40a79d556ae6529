package rules

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"rulebook/internal/config"
	"rulebook/pkg/circuitbreaker"
	pkgerrors "rulebook/pkg/errors"
)

// CircuitBreakerRepository shields the rule store behind a breaker. With the
// breaker disabled in config it degrades to a plain passthrough.
type CircuitBreakerRepository struct {
	repo Repository
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerRepository(repo Repository, cfg config.CircuitBreakerConfig) *CircuitBreakerRepository {
	if !cfg.Enabled {
		return &CircuitBreakerRepository{
			repo: repo,
			cb:   nil,
		}
	}

	cbConfig := circuitbreaker.DefaultConfig("rule-store")
	// A missing rule is a valid answer (combine probes ids that may be
	// absent); only real store failures count against the breaker.
	cbConfig.IsSuccessful = func(err error) bool {
		return err == nil || pkgerrors.IsNotFound(err)
	}
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		}
	}

	return &CircuitBreakerRepository{
		repo: repo,
		cb:   circuitbreaker.NewWrapper(cbConfig),
	}
}

func (r *CircuitBreakerRepository) Create(ctx context.Context, ruleString string) (int64, error) {
	if r.cb == nil {
		return r.repo.Create(ctx, ruleString)
	}

	result, err := r.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return r.repo.Create(ctx, ruleString)
	})

	r.cb.RecordRequest(err == nil)

	if err != nil {
		if r.cb.IsOpen() {
			return 0, fmt.Errorf("circuit breaker is open for rule-store: %w", err)
		}
		return 0, err
	}

	id, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("repository returned invalid result type")
	}

	return id, nil
}

func (r *CircuitBreakerRepository) GetByID(ctx context.Context, id int64) (*Rule, error) {
	if r.cb == nil {
		return r.repo.GetByID(ctx, id)
	}

	result, err := r.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return r.repo.GetByID(ctx, id)
	})

	r.cb.RecordRequest(err == nil || pkgerrors.IsNotFound(err))

	if err != nil {
		if r.cb.IsOpen() {
			return nil, fmt.Errorf("circuit breaker is open for rule-store: %w", err)
		}
		return nil, err
	}

	rule, ok := result.(*Rule)
	if !ok {
		return nil, fmt.Errorf("repository returned invalid result type")
	}

	return rule, nil
}

func (r *CircuitBreakerRepository) List(ctx context.Context) ([]Rule, error) {
	if r.cb == nil {
		return r.repo.List(ctx)
	}

	result, err := r.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return r.repo.List(ctx)
	})

	r.cb.RecordRequest(err == nil)

	if err != nil {
		if r.cb.IsOpen() {
			return nil, fmt.Errorf("circuit breaker is open for rule-store: %w", err)
		}
		return nil, err
	}

	rules, ok := result.([]Rule)
	if !ok {
		return nil, fmt.Errorf("repository returned invalid result type")
	}

	return rules, nil
}

func (r *CircuitBreakerRepository) State() string {
	if r.cb == nil {
		return "disabled"
	}
	return r.cb.State().String()
}
