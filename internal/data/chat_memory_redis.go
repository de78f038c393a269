package data

import (
	"context"
	"encoding/json"
	"time"

	"chat-service/internal/biz"
	"chat-service/internal/constants"
	"chat-service/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
)

// redisMessage 会话记忆在 Redis 列表中的存储格式
type redisMessage struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// redisChatMemory Redis 会话记忆后端
// 每个会话一个列表，RPUSH 追加，LTRIM 保留最近 N 条，整个列表带 TTL
type redisChatMemory struct {
	data    *Data
	conf    *biz.ChatConfig
	log     *log.Helper
	metrics *metrics.ChatMetrics
}

// NewRedisChatMemory 创建 Redis 会话记忆
func NewRedisChatMemory(data *Data, conf *biz.ChatConfig, logger log.Logger) biz.ChatMemoryRepo {
	return &redisChatMemory{
		data:    data,
		conf:    conf,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

func memoryKey(conversationID string) string {
	return constants.RedisKeyChatMemory + conversationID
}

// Append 追加一批消息到会话末尾
// 每次追加后裁剪到最大条数并续期 TTL
func (r *redisChatMemory) Append(ctx context.Context, conversationID string, messages []*biz.Message) error {
	if len(messages) == 0 {
		return nil
	}

	key := memoryKey(conversationID)
	docs := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		createdAt := msg.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		doc, err := json.Marshal(&redisMessage{
			Type:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: createdAt,
		})
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	if err := r.data.rdb.RPush(ctx, key, docs...).Err(); err != nil {
		return err
	}

	// 只保留最近 MemoryMaxMessages 条
	if max := r.conf.MemoryMaxMessages; max > 0 {
		if err := r.data.rdb.LTrim(ctx, key, int64(-max), -1).Err(); err != nil {
			r.log.Warnf("Failed to trim memory list %s: %v", key, err)
		}
	}
	if err := r.data.rdb.Expire(ctx, key, r.conf.MemoryTTL).Err(); err != nil {
		r.log.Warnf("Failed to set expiry on memory list %s: %v", key, err)
	}

	if r.metrics != nil {
		r.metrics.MemoryOpTotal.WithLabelValues(constants.MemoryBackendRedis, "append").Inc()
	}
	return nil
}

// GetAll 按创建顺序返回会话全部消息
func (r *redisChatMemory) GetAll(ctx context.Context, conversationID string) ([]*biz.Message, error) {
	return r.getRange(ctx, conversationID, 0)
}

// GetLast 返回最近 n 条消息，仍按时间正序
func (r *redisChatMemory) GetLast(ctx context.Context, conversationID string, n int) ([]*biz.Message, error) {
	return r.getRange(ctx, conversationID, n)
}

// getRange n>0 时取最近 n 条，否则取全部
func (r *redisChatMemory) getRange(ctx context.Context, conversationID string, n int) ([]*biz.Message, error) {
	start := int64(0)
	if n > 0 {
		start = int64(-n)
	}

	docs, err := r.data.rdb.LRange(ctx, memoryKey(conversationID), start, -1).Result()
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		r.metrics.MemoryOpTotal.WithLabelValues(constants.MemoryBackendRedis, "get").Inc()
	}
	return r.toMessages(conversationID, docs), nil
}

// toMessages 解码列表中的消息文档
func (r *redisChatMemory) toMessages(conversationID string, docs []string) []*biz.Message {
	messages := make([]*biz.Message, 0, len(docs))
	for _, doc := range docs {
		var m redisMessage
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			r.log.Warnf("Skipping malformed memory entry in conversation %s: %v", conversationID, err)
			continue
		}
		messages = append(messages, &biz.Message{
			ConversationID: conversationID,
			Role:           r.coerceRole(biz.MessageRole(m.Type)),
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
		})
	}
	return messages
}

// coerceRole 未知角色按用户消息处理，保证历史可回放
func (r *redisChatMemory) coerceRole(role biz.MessageRole) biz.MessageRole {
	switch role {
	case biz.MessageRoleSystem, biz.MessageRoleUser, biz.MessageRoleAssistant:
		return role
	}
	r.log.Warnf("Unknown message role %q, treating as user message", role)
	return biz.MessageRoleUser
}

// Clear 清空会话消息
func (r *redisChatMemory) Clear(ctx context.Context, conversationID string) error {
	if err := r.data.rdb.Del(ctx, memoryKey(conversationID)).Err(); err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.MemoryOpTotal.WithLabelValues(constants.MemoryBackendRedis, "clear").Inc()
	}
	return nil
}
