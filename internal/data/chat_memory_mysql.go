package data

import (
	"context"
	"time"

	"chat-service/internal/biz"
	"chat-service/internal/constants"
	"chat-service/internal/data/model"
	"chat-service/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// mysqlChatMemory MySQL 会话记忆后端
// 一行一条消息，按创建时间读取，消息永不修改
type mysqlChatMemory struct {
	data    *Data
	log     *log.Helper
	metrics *metrics.ChatMetrics
}

// NewMySQLChatMemory 创建 MySQL 会话记忆
func NewMySQLChatMemory(data *Data, logger log.Logger) biz.ChatMemoryRepo {
	return &mysqlChatMemory{
		data:    data,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

// Append 追加一批消息到会话末尾
func (r *mysqlChatMemory) Append(ctx context.Context, conversationID string, messages []*biz.Message) error {
	if len(messages) == 0 {
		return nil
	}

	rows := make([]*model.ChatMessage, 0, len(messages))
	for _, msg := range messages {
		createdAt := msg.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		rows = append(rows, &model.ChatMessage{
			MessageID: uuid.New().String(),
			ChatID:    conversationID,
			Type:      string(r.coerceRole(msg.Role)),
			Content:   msg.Content,
			CreatedAt: createdAt,
		})
	}

	if err := r.data.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.MemoryOpTotal.WithLabelValues(constants.MemoryBackendMySQL, "append").Inc()
	}
	return nil
}

// GetAll 按创建顺序返回会话全部消息
func (r *mysqlChatMemory) GetAll(ctx context.Context, conversationID string) ([]*biz.Message, error) {
	var rows []*model.ChatMessage
	if err := r.data.db.WithContext(ctx).
		Where("chat_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.MemoryOpTotal.WithLabelValues(constants.MemoryBackendMySQL, "get").Inc()
	}
	return r.toMessages(rows), nil
}

// GetLast 返回最近 n 条消息，仍按时间正序
func (r *mysqlChatMemory) GetLast(ctx context.Context, conversationID string, n int) ([]*biz.Message, error) {
	if n <= 0 {
		return r.GetAll(ctx, conversationID)
	}

	// 倒序取 n 条再反转
	var rows []*model.ChatMessage
	if err := r.data.db.WithContext(ctx).
		Where("chat_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	if r.metrics != nil {
		r.metrics.MemoryOpTotal.WithLabelValues(constants.MemoryBackendMySQL, "get").Inc()
	}
	return r.toMessages(rows), nil
}

// Clear 清空会话消息
func (r *mysqlChatMemory) Clear(ctx context.Context, conversationID string) error {
	if err := r.data.db.WithContext(ctx).
		Where("chat_id = ?", conversationID).
		Delete(&model.ChatMessage{}).Error; err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.MemoryOpTotal.WithLabelValues(constants.MemoryBackendMySQL, "clear").Inc()
	}
	return nil
}

// coerceRole 未知角色按用户消息处理，保证历史可回放
func (r *mysqlChatMemory) coerceRole(role biz.MessageRole) biz.MessageRole {
	switch role {
	case biz.MessageRoleSystem, biz.MessageRoleUser, biz.MessageRoleAssistant:
		return role
	}
	r.log.Warnf("Unknown message role %q, treating as user message", role)
	return biz.MessageRoleUser
}

func (r *mysqlChatMemory) toMessages(rows []*model.ChatMessage) []*biz.Message {
	messages := make([]*biz.Message, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, &biz.Message{
			ConversationID: row.ChatID,
			Role:           r.coerceRole(biz.MessageRole(row.Type)),
			Content:        row.Content,
			CreatedAt:      row.CreatedAt,
		})
	}
	return messages
}
