package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rulebook/internal/constants"
)

// EnsureRuleCollections sets up the indexes for the mongodb rule store. The
// counters collection backs the sequential numeric ids the other drivers get
// from their native autoincrement.
func EnsureRuleCollections(ctx context.Context, db *mongo.Database) error {
	rules := db.Collection(constants.RulesCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "rule_id", Value: 1}},
			Options: options.Index().SetName("idx_rules_rule_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_rules_created_at"),
		},
	}

	if _, err := rules.Indexes().CreateMany(ctx, indexes); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create rule indexes: %w", err)
		}
	}

	// The counters collection is keyed by _id only, which mongodb indexes on
	// its own. It gets created on the first findOneAndUpdate upsert.
	return nil
}
