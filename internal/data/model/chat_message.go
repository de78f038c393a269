package model

import (
	"time"
)

// ChatMessage 会话记忆消息表
// 每条消息一行，按 ChatID + CreatedAt 读取整段会话
type ChatMessage struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	MessageID string    `gorm:"type:varchar(36);not null;uniqueIndex"` // 消息UUID
	ChatID    string    `gorm:"type:varchar(64);not null;index:idx_chat_create,priority:1"`
	Type      string    `gorm:"type:varchar(16);not null"` // system/user/assistant
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_chat_create,priority:2"`
}

// TableName 指定表名
func (ChatMessage) TableName() string {
	return "chat_memory"
}
