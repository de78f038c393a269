package server

import (
	"context"
	"encoding/json"

	"chat-service/internal/biz"
	"chat-service/internal/conf"

	"github.com/apache/rocketmq-client-go/v2"
	"github.com/apache/rocketmq-client-go/v2/consumer"
	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/go-kratos/kratos/v2/log"
)

// MQConsumerServer 消费使用量事件并批量落库
type MQConsumerServer struct {
	c       rocketmq.PushConsumer
	repo    biz.QuotaRepo
	conf    *conf.Bootstrap
	log     *log.Helper
	enabled bool
}

// NewMQConsumerServer 创建 RocketMQ 消费者
// MQ 未启用或初始化失败时返回空实现，不阻塞应用启动
func NewMQConsumerServer(c *conf.Bootstrap, repo biz.QuotaRepo, logger log.Logger) *MQConsumerServer {
	if c.Data == nil || c.Data.Rocketmq == nil || !c.Data.Rocketmq.Enabled {
		return &MQConsumerServer{enabled: false}
	}

	r, err := rocketmq.NewPushConsumer(
		consumer.WithNsResolver(primitive.NewPassthroughResolver(c.Data.Rocketmq.NameServers)),
		consumer.WithGroupName(c.Data.Rocketmq.GroupName),
		consumer.WithRetry(int(c.Data.Rocketmq.RetryTimes)),
		consumer.WithConsumeMessageBatchMaxSize(100),
	)
	if err != nil {
		log.NewHelper(logger).Errorf("init consumer error: %v", err)
		return &MQConsumerServer{enabled: false}
	}

	return &MQConsumerServer{
		c:       r,
		repo:    repo,
		conf:    c,
		log:     log.NewHelper(logger),
		enabled: true,
	}
}

// Start 启动消费者
func (s *MQConsumerServer) Start(ctx context.Context) error {
	if !s.enabled || s.c == nil {
		return nil
	}

	s.log.Infof("Starting MQConsumerServer, topic: %s", s.conf.Data.Rocketmq.Topic)

	if err := s.c.Subscribe(s.conf.Data.Rocketmq.Topic, consumer.MessageSelector{}, s.handler); err != nil {
		// 开发环境 RocketMQ 可能不可用，订阅失败不阻塞应用启动
		s.log.Errorf("Failed to subscribe to topic %s: %v", s.conf.Data.Rocketmq.Topic, err)
		return nil
	}
	if err := s.c.Start(); err != nil {
		s.log.Errorf("Failed to start RocketMQ consumer: %v", err)
		return nil
	}
	return nil
}

// Stop 停止消费者
func (s *MQConsumerServer) Stop(ctx context.Context) error {
	if !s.enabled || s.c == nil {
		return nil
	}
	s.log.Info("Stopping MQConsumerServer")
	return s.c.Shutdown()
}

func (s *MQConsumerServer) handler(ctx context.Context, msgs ...*primitive.MessageExt) (consumer.ConsumeResult, error) {
	if len(msgs) == 0 {
		return consumer.ConsumeSuccess, nil
	}

	var events []*biz.UsageEvent
	for _, msg := range msgs {
		var event biz.UsageEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			s.log.Errorf("Unmarshal message failed: %v, body: %s", err, string(msg.Body))
			continue
		}
		events = append(events, &event)
	}

	if len(events) > 0 {
		if err := s.repo.ApplyUsageEvents(ctx, events); err != nil {
			s.log.Errorf("ApplyUsageEvents failed: %v", err)
			return consumer.ConsumeRetryLater, nil
		}
	}
	return consumer.ConsumeSuccess, nil
}
