// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"okr-compass-go/internal/config"
	"okr-compass-go/pkg/log"
	"okr-compass-go/pkg/tasks"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// maxAttempts 是同一事件的最大处理次数，超过后提交 offset 放弃重试。
const maxAttempts = 3

// EventProcessor defines the interface for any service that can process an OKR event.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type EventProcessor interface {
	Process(ctx context.Context, event tasks.OKREvent) error
}

// AttemptCounter 记录事件的失败次数。
type AttemptCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type redisAttemptCounter struct {
	rdb *redis.Client
}

// NewRedisAttemptCounter 使用 Redis 计数，计数 key 保留 24 小时。
func NewRedisAttemptCounter(rdb *redis.Client) AttemptCounter {
	return &redisAttemptCounter{rdb: rdb}
}

func attemptsKey(key string) string {
	return fmt.Sprintf("kafka:attempts:%s", key)
}

func (c *redisAttemptCounter) Incr(ctx context.Context, key string) (int64, error) {
	attempts, err := c.rdb.Incr(ctx, attemptsKey(key)).Result()
	if err != nil {
		return 0, err
	}
	_ = c.rdb.Expire(ctx, attemptsKey(key), 24*time.Hour).Err()
	return attempts, nil
}

func (c *redisAttemptCounter) Reset(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, attemptsKey(key)).Err()
}

var producer *kafka.Writer

// InitProducer 初始化 Kafka 生产者。
func InitProducer(cfg config.KafkaConfig) {
	producer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// ProduceEvent 发送一个 OKR 事件到 Kafka。同一目标的事件落在同一分区，保证顺序。
func ProduceEvent(ctx context.Context, event tasks.OKREvent) error {
	if producer == nil {
		return errors.New("kafka producer is not initialized")
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", event.ObjectiveID)),
		Value: eventBytes,
	})
}

// Publisher 把 ProduceEvent 适配为服务层的事件发布接口。
type Publisher struct{}

// Publish 发送事件。
func (Publisher) Publish(ctx context.Context, event tasks.OKREvent) error {
	return ProduceEvent(ctx, event)
}

// CloseProducer 关闭生产者，刷新未发送的消息。
func CloseProducer() error {
	if producer == nil {
		return nil
	}
	return producer.Close()
}

// StartConsumer 启动一个 Kafka 消费者来处理 OKR 事件，ctx 取消后退出。
func StartConsumer(ctx context.Context, cfg config.KafkaConfig, processor EventProcessor, counter AttemptCounter) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.Topic)

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("从 Kafka 读取消息失败", err)
			}
			break
		}

		log.Infof("收到 Kafka 消息: offset %d", m.Offset)
		if HandleMessage(ctx, m.Value, processor, counter) {
			if err := r.CommitMessages(ctx, m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Errorf("关闭 Kafka 消费者失败: %v", err)
	}
}

// HandleMessage 处理一条消息并返回是否应提交 offset。
// 格式错误的消息直接提交；处理失败时计数，达到 maxAttempts 后提交放弃；Redis 异常时不提交，交给 Kafka 重投。
func HandleMessage(ctx context.Context, value []byte, processor EventProcessor, counter AttemptCounter) bool {
	var event tasks.OKREvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(value))
		return true
	}

	log.Infof("开始处理事件: type=%s, objective=%d", event.Type, event.ObjectiveID)
	if err := processor.Process(ctx, event); err != nil {
		log.Errorf("处理事件失败: key=%s, Error: %v", event.Key(), err)
		attempts, incErr := counter.Incr(ctx, event.Key())
		if incErr != nil {
			return false
		}
		if attempts >= maxAttempts {
			log.Errorf("事件多次失败(>=%d)，提交 offset 终止重试: key=%s", maxAttempts, event.Key())
			return true
		}
		return false
	}

	log.Infof("事件处理成功: key=%s", event.Key())
	_ = counter.Reset(ctx, event.Key())
	return true
}
