package biz

import (
	"context"
	"testing"

	"chat-service/internal/conf"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQuota() (*QuotaUseCase, *fakeQuotaRepo) {
	logger := testLogger()
	config := NewChatConfig(&conf.Bootstrap{})
	repo := newFakeQuotaRepo()
	return NewQuotaUseCase(repo, config, logger), repo
}

func TestQuotaResetClearsTodayUsage(t *testing.T) {
	uc, _ := newTestQuota()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := uc.Increment(ctx, "u1", 10)
		require.NoError(t, err)
	}
	usage, err := uc.GetTodayUsage(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 7, usage)

	// 重置后读数归零，与累计次数无关
	require.NoError(t, uc.Reset(ctx, "u1"))
	usage, err = uc.GetTodayUsage(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, usage)

	// 未使用过的用户重置同样安全
	require.NoError(t, uc.Reset(ctx, "ghost"))
	usage, err = uc.GetTodayUsage(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, 0, usage)
}

func TestQuotaConversationCounter(t *testing.T) {
	uc, _ := newTestQuota()
	ctx := context.Background()

	require.NoError(t, uc.BumpConversationMessageCount(ctx, "conv-1", 2))
	require.NoError(t, uc.BumpConversationMessageCount(ctx, "conv-1", 2))

	count, err := uc.ConversationMessageCount(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
