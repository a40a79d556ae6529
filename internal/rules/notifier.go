package rules

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rulebook/internal/broker"
	"rulebook/pkg/logging"
	"rulebook/pkg/models"
)

// RuleEventProducer announces persisted rules on the broker. With no producer
// or topic configured every publish is a no-op.
type RuleEventProducer struct {
	producer broker.Producer
	topic    string
}

func NewRuleEventProducer(producer broker.Producer, topic string) *RuleEventProducer {
	return &RuleEventProducer{
		producer: producer,
		topic:    topic,
	}
}

func (p *RuleEventProducer) PublishRuleCreated(ctx context.Context, rule Rule) error {
	if p.producer == nil || p.topic == "" {
		return nil
	}

	event := models.RuleEvent{
		RuleID:     rule.ID,
		RuleString: rule.RuleString,
		Action:     models.ActionCreate,
	}

	envelope := models.MessageEnvelope{
		ID:        uuid.New().String(),
		Source:    "rule-service",
		Timestamp: time.Now(),
		Payload:   event.ToPayload(),
		Metadata: models.Metadata{
			TraceID:   logging.GetTraceID(ctx),
			EventType: models.EventTypeRuleCreated,
		},
	}

	return p.producer.Publish(ctx, p.topic, envelope)
}
