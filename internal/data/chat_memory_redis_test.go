package data

import (
	"io"
	"testing"

	"chat-service/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisMemory() *redisChatMemory {
	return &redisChatMemory{log: log.NewHelper(log.NewStdLogger(io.Discard))}
}

func TestRedisToMessagesCoercesUnknownRole(t *testing.T) {
	r := newTestRedisMemory()

	docs := []string{
		`{"type":"user","content":"第一条","created_at":"2025-06-01T12:00:00+08:00"}`,
		`{"type":"assistant","content":"第二条","created_at":"2025-06-01T12:00:01+08:00"}`,
		`{"type":"tool","content":"第三条","created_at":"2025-06-01T12:00:02+08:00"}`,
	}

	messages := r.toMessages("conv-1", docs)
	require.Len(t, messages, 3)
	assert.Equal(t, biz.MessageRoleUser, messages[0].Role)
	assert.Equal(t, biz.MessageRoleAssistant, messages[1].Role)
	// 未知角色被纠正为用户消息
	assert.Equal(t, biz.MessageRoleUser, messages[2].Role)
	assert.Equal(t, "第三条", messages[2].Content)
	assert.Equal(t, "conv-1", messages[2].ConversationID)
}

func TestRedisToMessagesSkipsMalformedDocs(t *testing.T) {
	r := newTestRedisMemory()

	docs := []string{
		`not-json`,
		`{"type":"user","content":"有效消息","created_at":"2025-06-01T12:00:00+08:00"}`,
	}

	messages := r.toMessages("conv-1", docs)
	require.Len(t, messages, 1)
	assert.Equal(t, "有效消息", messages[0].Content)
}
