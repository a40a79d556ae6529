package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	CacheKeyPrefixRule = "rule:"
)

const (
	DefaultMongoDBName = "rulebook"

	// Collection names for the mongodb rule store.
	RulesCollection    = "rules"
	CountersCollection = "counters"
)

const (
	// Connective the combine endpoint falls back to when the request omits
	// one.
	DefaultCombineConnective = "or"
)

const (
	DefaultCacheTTLSeconds = 3600
)
