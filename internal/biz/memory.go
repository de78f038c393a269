package biz

import (
	"context"
	"time"
)

// MessageRole 消息角色
type MessageRole string

// 消息角色常量
const (
	// MessageRoleSystem 系统消息
	MessageRoleSystem MessageRole = "system"
	// MessageRoleUser 用户消息
	MessageRoleUser MessageRole = "user"
	// MessageRoleAssistant 助手消息
	MessageRoleAssistant MessageRole = "assistant"
)

// Message 会话消息领域对象
// 会话内按创建时间有序，只追加，不修改历史消息
type Message struct {
	ConversationID string
	Role           MessageRole
	Content        string
	CreatedAt      time.Time
}

// ChatMemoryRepo 会话记忆数据层接口（定义在 biz 层）
// 两种可互换后端：MySQL（一行一条消息，持久）与 Redis（有界列表 + TTL）
type ChatMemoryRepo interface {
	// Append 追加一批消息到会话末尾
	Append(ctx context.Context, conversationID string, messages []*Message) error
	// GetAll 按创建顺序返回会话全部消息
	GetAll(ctx context.Context, conversationID string) ([]*Message, error)
	// GetLast 返回最近 n 条消息，仍按时间正序；n<=0 时返回全部
	GetLast(ctx context.Context, conversationID string, n int) ([]*Message, error)
	// Clear 清空会话消息
	Clear(ctx context.Context, conversationID string) error
}
