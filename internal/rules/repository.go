package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pkgerrors "rulebook/pkg/errors"
	"rulebook/pkg/metrics"
)

// Repository is the rule store contract. Rules are append-only, so there is
// no update or delete.
type Repository interface {
	Create(ctx context.Context, ruleString string) (int64, error)
	GetByID(ctx context.Context, id int64) (*Rule, error)
	List(ctx context.Context) ([]Rule, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, ruleString string) (int64, error) {
	query := `
		INSERT INTO rules (rule_string)
		VALUES ($1)
		RETURNING id
	`

	start := time.Now()
	var id int64
	err := r.db.QueryRowContext(ctx, query, ruleString).Scan(&id)
	metrics.ObserveDatabaseQueryDuration("postgres", "create", time.Since(start))
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "create", "error")
		return 0, fmt.Errorf("failed to create rule: %w", err)
	}

	metrics.IncDatabaseQuery("postgres", "create", "success")
	return id, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*Rule, error) {
	query := `
		SELECT id, rule_string
		FROM rules
		WHERE id = $1
	`

	start := time.Now()
	row := r.db.QueryRowContext(ctx, query, id)

	var rule Rule
	err := row.Scan(&rule.ID, &rule.RuleString)
	metrics.ObserveDatabaseQueryDuration("postgres", "get", time.Since(start))

	if errors.Is(err, sql.ErrNoRows) {
		metrics.IncDatabaseQuery("postgres", "get", "not_found")
		return nil, pkgerrors.ErrNotFound.WithDetail("rule_id", id)
	}
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "get", "error")
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	metrics.IncDatabaseQuery("postgres", "get", "success")
	return &rule, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Rule, error) {
	query := `
		SELECT id, rule_string
		FROM rules
		ORDER BY id
	`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	metrics.ObserveDatabaseQueryDuration("postgres", "list", time.Since(start))
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "list", "error")
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.RuleString); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	metrics.IncDatabaseQuery("postgres", "list", "success")
	return rules, nil
}
