package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rulebook/internal/constants"
	pkgerrors "rulebook/pkg/errors"
	"rulebook/pkg/metrics"
)

// MongoRepository stores rules with explicit int64 ids so the API contract
// stays identical across backends. Ids come from a counters document bumped
// atomically on every insert.
type MongoRepository struct {
	rules    *mongo.Collection
	counters *mongo.Collection
}

type mongoRule struct {
	ID         int64  `bson:"_id"`
	RuleString string `bson:"rule_string"`
}

type mongoCounter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		rules:    db.Collection(constants.RulesCollection),
		counters: db.Collection(constants.CountersCollection),
	}
}

func (r *MongoRepository) nextID(ctx context.Context) (int64, error) {
	filter := bson.M{"_id": constants.RulesCollection}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter mongoCounter
	if err := r.counters.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("failed to allocate rule id: %w", err)
	}
	return counter.Seq, nil
}

func (r *MongoRepository) Create(ctx context.Context, ruleString string) (int64, error) {
	start := time.Now()

	id, err := r.nextID(ctx)
	if err != nil {
		metrics.IncDatabaseQuery("mongodb", "create", "error")
		return 0, err
	}

	_, err = r.rules.InsertOne(ctx, mongoRule{ID: id, RuleString: ruleString})
	metrics.ObserveDatabaseQueryDuration("mongodb", "create", time.Since(start))
	if err != nil {
		metrics.IncDatabaseQuery("mongodb", "create", "error")
		return 0, fmt.Errorf("failed to create rule: %w", err)
	}

	metrics.IncDatabaseQuery("mongodb", "create", "success")
	return id, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id int64) (*Rule, error) {
	start := time.Now()

	var doc mongoRule
	err := r.rules.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	metrics.ObserveDatabaseQueryDuration("mongodb", "get", time.Since(start))

	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.IncDatabaseQuery("mongodb", "get", "not_found")
		return nil, pkgerrors.ErrNotFound.WithDetail("rule_id", id)
	}
	if err != nil {
		metrics.IncDatabaseQuery("mongodb", "get", "error")
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	metrics.IncDatabaseQuery("mongodb", "get", "success")
	return &Rule{ID: doc.ID, RuleString: doc.RuleString}, nil
}

func (r *MongoRepository) List(ctx context.Context) ([]Rule, error) {
	start := time.Now()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.rules.Find(ctx, bson.M{}, opts)
	metrics.ObserveDatabaseQueryDuration("mongodb", "list", time.Since(start))
	if err != nil {
		metrics.IncDatabaseQuery("mongodb", "list", "error")
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []Rule
	for cursor.Next(ctx) {
		var doc mongoRule
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode rule: %w", err)
		}
		rules = append(rules, Rule{ID: doc.ID, RuleString: doc.RuleString})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	metrics.IncDatabaseQuery("mongodb", "list", "success")
	return rules, nil
}
