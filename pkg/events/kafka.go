package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaPublisher, olayları asenkron bir kafka-go Writer ile yazar.
// Mesaj anahtarı köy adıdır; Hash balancer aynı köyün olaylarını aynı
// partition'a düşürür, böylece köy içi sıra korunur.
type KafkaPublisher struct {
	writer *kafkago.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	p := &KafkaPublisher{log: log}
	p.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   p.onCompletion,
	}
	return p
}

func (p *KafkaPublisher) Publish(ctx context.Context, event ChatEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	msg, err := encode(event)
	if err != nil {
		p.log.Warn("failed to encode chat event", zap.String("type", event.Type), zap.Error(err))
		return
	}

	// Async writer'da WriteMessages yalnızca kuyruğa ekler.
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("failed to enqueue chat event", zap.String("type", event.Type), zap.Error(err))
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) onCompletion(messages []kafkago.Message, err error) {
	if err != nil {
		p.log.Warn("failed to deliver chat events", zap.Int("count", len(messages)), zap.Error(err))
	}
}

func encode(event ChatEvent) (kafkago.Message, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(event.Village),
		Value: b,
		Time:  event.At,
	}, nil
}
