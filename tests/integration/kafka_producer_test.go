package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rulebook/internal/broker"
	"rulebook/internal/config"
	"rulebook/internal/rules"
	"rulebook/pkg/models"
)

func TestKafkaProducerPublishesRuleEvents(t *testing.T) {
	brokers := SetupKafka(t)
	topic := "rule-events-test"

	producer := broker.NewKafkaProducer(config.KafkaConfig{
		Brokers:         brokers,
		RuleEventsTopic: topic,
	}, createTestLogger())
	t.Cleanup(func() {
		producer.Close()
	})

	events := rules.NewRuleEventProducer(producer, topic)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rule := rules.Rule{ID: 1, RuleString: "age>30 AND salary>50000"}
	require.NoError(t, events.PublishRuleCreated(ctx, rule))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     fmt.Sprintf("rule-events-test-%s", uuid.New().String()),
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer reader.Close()

	raw, err := reader.ReadMessage(ctx)
	require.NoError(t, err)

	var envelope models.MessageEnvelope
	require.NoError(t, json.Unmarshal(raw.Value, &envelope))

	assert.NotEmpty(t, envelope.ID)
	assert.Equal(t, "rule-service", envelope.Source)
	assert.Equal(t, models.EventTypeRuleCreated, envelope.Metadata.EventType)
	assert.Equal(t, "create", envelope.Payload["action"])
	assert.Equal(t, "age>30 AND salary>50000", envelope.Payload["rule_string"])
	assert.Equal(t, float64(1), envelope.Payload["rule_id"])
}
