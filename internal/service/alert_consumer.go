package service

import (
	"alertflow/internal/model"
	"alertflow/internal/signal"
	"alertflow/pkg/kafka"
	"alertflow/pkg/logger"
	"context"
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
)

// AlertConsumer 从 kafka topic 读取告警，走和 webhook 相同的入口
type AlertConsumer struct {
	alerts   *AlertService
	consumer kafka.ConsumerService
	topic    string
	groupID  string
}

func NewAlertConsumer(alerts *AlertService, consumer kafka.ConsumerService, topic, groupID string) *AlertConsumer {
	return &AlertConsumer{alerts: alerts, consumer: consumer, topic: topic, groupID: groupID}
}

// Run 阻塞直到 ctx 结束
func (c *AlertConsumer) Run(ctx context.Context) error {
	logger.Infof("kafka alert consumer started, topic=%s group=%s", c.topic, c.groupID)
	defer c.consumer.Close()
	return c.consumer.Consume(ctx, c.topic, c.groupID, c.Handle)
}

// Handle 解析并提交一条告警；格式错误和校验失败的消息直接跳过
func (c *AlertConsumer) Handle(ctx context.Context, m kafkago.Message) error {
	raw, err := DecodeAlert(m.Value)
	if err != nil {
		return err
	}
	if _, err = c.alerts.Accept(ctx, raw); err != nil && !signal.IsValidationError(err) {
		return err
	}
	// 策略不存在或已停用的告警由 Accept 记录，这里直接跳过
	return nil
}

// DecodeAlert 解析并校验告警 JSON，规则和 webhook 绑定一致
func DecodeAlert(data []byte) (model.RawAlert, error) {
	var raw model.RawAlert
	if err := json.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("decode alert: %w", err)
	}
	if err := binding.Validator.ValidateStruct(&raw); err != nil {
		return raw, fmt.Errorf("validate alert: %w", err)
	}
	return raw, nil
}
