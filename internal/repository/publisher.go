package repository

import (
	"context"

	"sweepguard/internal/domain/models"
	pkgkafka "sweepguard/pkg/kafka"
)

// KafkaPublisher emits decision events to Kafka topics. It implements
// repository.Publisher. Signals are keyed by symbol and executions by
// signal ID, so each stream stays ordered within a partition.
type KafkaPublisher struct {
	producer       *pkgkafka.Producer
	signalTopic    string
	executionTopic string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, signalTopic, executionTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer:       producer,
		signalTopic:    signalTopic,
		executionTopic: executionTopic,
	}
}

type signalEvent struct {
	ID         string   `json:"id"`
	Timestamp  int64    `json:"ts"`
	Symbol     string   `json:"symbol"`
	Direction  string   `json:"direction"`
	TotalScore float64  `json:"total_score"`
	MaxScore   float64  `json:"max_score"`
	Threshold  float64  `json:"threshold"`
	Valid      bool     `json:"valid"`
	Entry      float64  `json:"entry"`
	Degraded   []string `json:"degraded,omitempty"`
}

type executionEvent struct {
	SignalID  string  `json:"signal_id"`
	Timestamp int64   `json:"ts"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason,omitempty"`
	OrderID   string  `json:"order_id,omitempty"`
	FillPrice float64 `json:"fill_price,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
	Attempts  int     `json:"attempts"`
}

func (p *KafkaPublisher) PublishSignal(ctx context.Context, sig *models.AggregatedSignal) error {
	ev := signalEvent{
		ID:         sig.ID,
		Timestamp:  sig.Timestamp.Unix(),
		Symbol:     sig.Symbol,
		Direction:  string(sig.Direction),
		TotalScore: sig.TotalScore,
		MaxScore:   sig.MaxScore,
		Threshold:  sig.Threshold,
		Valid:      sig.Valid,
		Entry:      sig.Entry,
		Degraded:   sig.Degraded,
	}
	return p.producer.Publish(ctx, p.signalTopic, []byte(sig.Symbol), ev)
}

func (p *KafkaPublisher) PublishExecution(ctx context.Context, res *models.ExecutionResult) error {
	ev := executionEvent{
		SignalID:  res.SignalID,
		Timestamp: res.Timestamp.Unix(),
		Status:    string(res.Status),
		Reason:    res.Reason,
		OrderID:   res.OrderID,
		FillPrice: res.FillPrice,
		Volume:    res.Volume,
		Attempts:  res.Attempts,
	}
	return p.producer.Publish(ctx, p.executionTopic, []byte(res.SignalID), ev)
}

func (p *KafkaPublisher) Close() error { return p.producer.Close() }

// NopPublisher discards events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishSignal(context.Context, *models.AggregatedSignal) error  { return nil }
func (NopPublisher) PublishExecution(context.Context, *models.ExecutionResult) error { return nil }
func (NopPublisher) Close() error                                                    { return nil }
