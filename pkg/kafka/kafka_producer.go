package kafka

import (
	"alertflow/pkg/logger"
	"context"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Kafka 生产者服务
// 定义接口，方便测试和替换
type ProducerService interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
	Close()
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaProducer struct {
	mu      sync.Mutex
	writers map[string]messageWriter // topic -> writer
	newW    func(topic string) messageWriter
}

// NewKafkaProducer 每个 topic 使用独立的 Writer，首次写入时创建
func NewKafkaProducer(brokerURL string, topics ...string) ProducerService {
	p := &kafkaProducer{
		writers: make(map[string]messageWriter),
		newW: func(topic string) messageWriter {
			return &kafka.Writer{
				Addr:                   kafka.TCP(brokerURL),
				Topic:                  topic,
				Balancer:               &kafka.LeastBytes{},
				AllowAutoTopicCreation: true,
			}
		},
	}
	for _, t := range topics {
		p.writers[t] = p.newW(t)
	}
	return p
}

func (p *kafkaProducer) writer(topic string) (messageWriter, error) {
	if topic == "" {
		return nil, fmt.Errorf("invalid kafka topic")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.writers[topic]
	if !ok {
		w = p.newW(topic)
		p.writers[topic] = w
	}
	return w, nil
}

// Produce 写入一条消息，key 相同的消息进入同一个 Partition
func (p *kafkaProducer) Produce(ctx context.Context, topic string, key, value []byte) error {
	w, err := p.writer(topic)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

func (p *kafkaProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			logger.Errorf("Error closing kafka writer %s: %v", topic, err)
		}
	}
}
