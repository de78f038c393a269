package data

import (
	"io"
	"testing"
	"time"

	"chat-service/internal/biz"
	"chat-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMySQLMemory() *mysqlChatMemory {
	return &mysqlChatMemory{log: log.NewHelper(log.NewStdLogger(io.Discard))}
}

func TestCoerceRole(t *testing.T) {
	m := newTestMySQLMemory()

	assert.Equal(t, biz.MessageRoleSystem, m.coerceRole(biz.MessageRoleSystem))
	assert.Equal(t, biz.MessageRoleUser, m.coerceRole(biz.MessageRoleUser))
	assert.Equal(t, biz.MessageRoleAssistant, m.coerceRole(biz.MessageRoleAssistant))

	// 未知角色按用户消息处理，历史仍可回放
	assert.Equal(t, biz.MessageRoleUser, m.coerceRole(biz.MessageRole("tool")))
	assert.Equal(t, biz.MessageRoleUser, m.coerceRole(biz.MessageRole("")))
}

func TestToMessagesPreservesOrder(t *testing.T) {
	m := newTestMySQLMemory()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.Local)

	rows := []*model.ChatMessage{
		{ChatID: "conv-1", Type: "user", Content: "第一条", CreatedAt: base},
		{ChatID: "conv-1", Type: "assistant", Content: "第二条", CreatedAt: base.Add(time.Second)},
		{ChatID: "conv-1", Type: "weird", Content: "第三条", CreatedAt: base.Add(2 * time.Second)},
	}

	messages := m.toMessages(rows)
	require.Len(t, messages, 3)
	assert.Equal(t, "第一条", messages[0].Content)
	assert.Equal(t, biz.MessageRoleAssistant, messages[1].Role)
	// 未知类型被纠正为用户消息
	assert.Equal(t, biz.MessageRoleUser, messages[2].Role)
	assert.Equal(t, "conv-1", messages[2].ConversationID)
}
