package data

import (
	"chat-service/internal/biz"
	"chat-service/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

// NewChatMemoryRepo 按配置选择会话记忆后端
// mysql：持久存储，一行一条消息；redis：有界列表 + TTL，天然淘汰
func NewChatMemoryRepo(data *Data, conf *biz.ChatConfig, logger log.Logger) biz.ChatMemoryRepo {
	switch conf.MemoryBackend {
	case constants.MemoryBackendRedis:
		return NewRedisChatMemory(data, conf, logger)
	default:
		return NewMySQLChatMemory(data, logger)
	}
}
