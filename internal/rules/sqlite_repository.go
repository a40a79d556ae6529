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

// SQLiteRepository is the default store, backed by an embedded database file
// like the original deployment.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// EnsureSchema creates the rules table when it does not exist yet. SQLite has
// no external migration step, so the schema rides along with the repository.
func (r *SQLiteRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_string TEXT NOT NULL
		)
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create rules table: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Create(ctx context.Context, ruleString string) (int64, error) {
	query := `INSERT INTO rules (rule_string) VALUES (?)`

	start := time.Now()
	res, err := r.db.ExecContext(ctx, query, ruleString)
	metrics.ObserveDatabaseQueryDuration("sqlite", "create", time.Since(start))
	if err != nil {
		metrics.IncDatabaseQuery("sqlite", "create", "error")
		return 0, fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		metrics.IncDatabaseQuery("sqlite", "create", "error")
		return 0, fmt.Errorf("failed to read rule id: %w", err)
	}

	metrics.IncDatabaseQuery("sqlite", "create", "success")
	return id, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Rule, error) {
	query := `SELECT id, rule_string FROM rules WHERE id = ?`

	start := time.Now()
	row := r.db.QueryRowContext(ctx, query, id)

	var rule Rule
	err := row.Scan(&rule.ID, &rule.RuleString)
	metrics.ObserveDatabaseQueryDuration("sqlite", "get", time.Since(start))

	if errors.Is(err, sql.ErrNoRows) {
		metrics.IncDatabaseQuery("sqlite", "get", "not_found")
		return nil, pkgerrors.ErrNotFound.WithDetail("rule_id", id)
	}
	if err != nil {
		metrics.IncDatabaseQuery("sqlite", "get", "error")
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	metrics.IncDatabaseQuery("sqlite", "get", "success")
	return &rule, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Rule, error) {
	query := `SELECT id, rule_string FROM rules ORDER BY id`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	metrics.ObserveDatabaseQueryDuration("sqlite", "list", time.Since(start))
	if err != nil {
		metrics.IncDatabaseQuery("sqlite", "list", "error")
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.RuleString); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	metrics.IncDatabaseQuery("sqlite", "list", "success")
	return rules, nil
}
