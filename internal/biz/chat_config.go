package biz

import (
	"math"
	"time"

	"chat-service/internal/conf"
	"chat-service/internal/constants"
)

// RoleLimit 单个角色的限额
type RoleLimit struct {
	DailyQuota   int // 每日对话次数上限
	MessageLimit int // 单个会话消息数上限
}

// Unbounded 表示不设上限
const Unbounded = math.MaxInt32

// defaultRoleLimits 内置角色限额静态表
var defaultRoleLimits = map[Role]RoleLimit{
	RoleFree:       {DailyQuota: 10, MessageLimit: 50},
	RoleTrial:      {DailyQuota: 50, MessageLimit: 200},
	RoleVip:        {DailyQuota: 500, MessageLimit: 2000},
	RoleEnterprise: {DailyQuota: Unbounded, MessageLimit: Unbounded},
}

// ChatConfig 对话配置
type ChatConfig struct {
	MemoryBackend     string
	MemoryWindow      int
	MemoryMaxMessages int
	MemoryTTL         time.Duration
	ConversationTTL   time.Duration
	RetentionDays     int

	roles map[Role]RoleLimit
}

// NewChatConfig 从配置创建 ChatConfig
func NewChatConfig(c *conf.Bootstrap) *ChatConfig {
	config := &ChatConfig{
		MemoryBackend:     constants.MemoryBackendMySQL,
		MemoryWindow:      1, // 刻意保持很小的记忆窗口，约束上下文规模与成本
		MemoryMaxMessages: 100,
		MemoryTTL:         24 * time.Hour,
		ConversationTTL:   24 * time.Hour,
		RetentionDays:     30,
		roles:             make(map[Role]RoleLimit, len(defaultRoleLimits)),
	}
	for role, limit := range defaultRoleLimits {
		config.roles[role] = limit
	}

	if c.Chat == nil {
		return config
	}
	if c.Chat.MemoryBackend != "" {
		config.MemoryBackend = c.Chat.MemoryBackend
	}
	if c.Chat.MemoryWindow > 0 {
		config.MemoryWindow = c.Chat.MemoryWindow
	}
	if c.Chat.MemoryMaxMessages > 0 {
		config.MemoryMaxMessages = c.Chat.MemoryMaxMessages
	}
	if c.Chat.MemoryTtl.AsDuration() > 0 {
		config.MemoryTTL = c.Chat.MemoryTtl.AsDuration()
	}
	if c.Chat.ConversationTtl.AsDuration() > 0 {
		config.ConversationTTL = c.Chat.ConversationTtl.AsDuration()
	}
	if c.Chat.RetentionDays > 0 {
		config.RetentionDays = c.Chat.RetentionDays
	}
	for code, limit := range c.Chat.Roles {
		if limit == nil {
			continue
		}
		role := ParseRole(code)
		current := config.roles[role]
		if limit.DailyQuota > 0 {
			current.DailyQuota = limit.DailyQuota
		}
		if limit.MessageLimit > 0 {
			current.MessageLimit = limit.MessageLimit
		}
		config.roles[role] = current
	}
	return config
}

// Limits 返回角色限额，未知角色按免费用户处理
func (c *ChatConfig) Limits(role Role) RoleLimit {
	if limit, ok := c.roles[role]; ok {
		return limit
	}
	return c.roles[RoleFree]
}
