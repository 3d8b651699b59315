package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type KafkaPublisher struct {
	w        *kafka.Writer
	inbox    chan kafka.Message
	closeCh  chan struct{}
	producer string
}

func NewKafkaPublisher(brokers []string, topic string, producer string, buf int) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:    make(chan kafka.Message, buf),
		closeCh:  make(chan struct{}),
		producer: producer,
	}
}

func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				close(p.inbox)
				for m := range p.inbox {
					_ = p.w.WriteMessages(context.Background(), m)
				}
				_ = p.w.Close()
				close(p.closeCh)
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					close(p.closeCh)
					return
				}
				_ = p.w.WriteMessages(context.Background(), m)
			}
		}
	}()
}

// keyはcart_id（同一カートのイベント順序をパーティション内で保つ）
func (p *KafkaPublisher) Publish(eventType string, payload CartEventPayload) {
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now(),
		Producer:     p.producer,
		Payload:      payload,
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return
	}

	p.inbox <- kafka.Message{
		Key:   []byte(strconv.FormatInt(payload.CartID, 10)),
		Value: raw,
		Time:  env.OccurredAt,
	}
}

// チャネルを閉じてgoroutineに残りをflushさせる
func (p *KafkaPublisher) Close() { close(p.inbox) }

// flush完了を待つ
func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }
