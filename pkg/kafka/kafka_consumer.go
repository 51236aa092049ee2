package kafka

import (
	"alertflow/pkg/logger"
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler 处理一条消息；返回错误时消息仍会提交，由调用方决定是否记录
type Handler func(ctx context.Context, m kafka.Message) error

// ConsumerService 定义了消费 Kafka 消息的通用接口
type ConsumerService interface {
	// Consume 阻塞消费指定主题，直到 ctx 结束
	Consume(ctx context.Context, topic string, groupID string, h Handler) error
	Close()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaConsumer struct {
	brokerURL string
	newReader func(topic, groupID string) messageReader
	backoff   time.Duration
}

func NewKafkaConsumer(brokerURL string) ConsumerService {
	return &kafkaConsumer{
		brokerURL: brokerURL,
		backoff:   time.Second,
		newReader: func(topic, groupID string) messageReader {
			return kafka.NewReader(kafka.ReaderConfig{
				Brokers:     []string{brokerURL},
				Topic:       topic,
				GroupID:     groupID,
				MinBytes:    1,
				MaxBytes:    10e6, // 10MB
				StartOffset: kafka.LastOffset,
				MaxAttempts: 3,
			})
		},
	}
}

// Consume 逐条读取并处理，处理完成后再提交 offset。
// 和 bus 一样不丢弃消息：处理慢时阻塞读取。
func (c *kafkaConsumer) Consume(ctx context.Context, topic string, groupID string, h Handler) error {
	r := c.newReader(topic, groupID)
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warnf("close kafka reader %s: %v", topic, err)
		}
		logger.Infof("Kafka Consumer for topic %s finished.", topic)
	}()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			// 如果是 Context 被取消（服务关闭），正常退出
			if ctx.Err() != nil {
				return nil
			}
			// reader 已关闭
			if errors.Is(err, io.EOF) {
				return nil
			}
			logger.Errorf("Kafka read error on topic %s: %v", topic, err)
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil
			}
			continue
		}

		if err := h(ctx, m); err != nil {
			logger.Warnf("kafka message %s/%d@%d handle error: %v", m.Topic, m.Partition, m.Offset, err)
		}
		if err := r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			logger.Errorf("Failed to commit offset: %v", err)
		}
	}
}

func (c *kafkaConsumer) Close() {
	logger.Info("Kafka Consumer Service closing...")
}
