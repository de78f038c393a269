package biz

import (
	"testing"
	"time"

	"chat-service/internal/conf"

	"github.com/stretchr/testify/assert"
)

func TestChatConfigDefaults(t *testing.T) {
	config := NewChatConfig(&conf.Bootstrap{})

	assert.Equal(t, "mysql", config.MemoryBackend)
	assert.Equal(t, 1, config.MemoryWindow)
	assert.Equal(t, 100, config.MemoryMaxMessages)
	assert.Equal(t, 24*time.Hour, config.MemoryTTL)
	assert.Equal(t, 30, config.RetentionDays)

	assert.Equal(t, RoleLimit{DailyQuota: 10, MessageLimit: 50}, config.Limits(RoleFree))
	assert.Equal(t, RoleLimit{DailyQuota: 50, MessageLimit: 200}, config.Limits(RoleTrial))
	assert.Equal(t, RoleLimit{DailyQuota: 500, MessageLimit: 2000}, config.Limits(RoleVip))
	assert.Equal(t, RoleLimit{DailyQuota: Unbounded, MessageLimit: Unbounded}, config.Limits(RoleEnterprise))
}

func TestChatConfigOverrides(t *testing.T) {
	config := NewChatConfig(&conf.Bootstrap{
		Chat: &conf.Chat{
			MemoryBackend: "redis",
			MemoryWindow:  5,
			MemoryTtl:     conf.Duration(time.Hour),
			RetentionDays: 7,
			Roles: map[string]*conf.RoleLimit{
				"FREE": {DailyQuota: 20},
			},
		},
	})

	assert.Equal(t, "redis", config.MemoryBackend)
	assert.Equal(t, 5, config.MemoryWindow)
	assert.Equal(t, time.Hour, config.MemoryTTL)
	assert.Equal(t, 7, config.RetentionDays)

	// 只覆盖每日配额，消息上限保持内置值
	assert.Equal(t, RoleLimit{DailyQuota: 20, MessageLimit: 50}, config.Limits(RoleFree))
}

func TestChatConfigUnknownRoleFallsBackToFree(t *testing.T) {
	config := NewChatConfig(&conf.Bootstrap{})
	assert.Equal(t, config.Limits(RoleFree), config.Limits(Role("SOMETHING_ELSE")))
}
