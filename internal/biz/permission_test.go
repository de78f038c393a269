package biz

import (
	"context"
	"io"
	"testing"
	"time"

	"chat-service/internal/conf"
	chatErrors "chat-service/internal/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() log.Logger {
	return log.NewStdLogger(io.Discard)
}

func newTestPermission(users ...*User) (*PermissionUseCase, *fakeQuotaRepo) {
	logger := testLogger()
	config := NewChatConfig(&conf.Bootstrap{})
	quotaRepo := newFakeQuotaRepo()
	userUC := NewUserUseCase(newFakeUserRepo(users...), logger)
	quotaUC := NewQuotaUseCase(quotaRepo, config, logger)
	return NewPermissionUseCase(userUC, quotaUC, config, logger), quotaRepo
}

func TestAuthorizeDailyQuota(t *testing.T) {
	perm, quotaRepo := newTestPermission(&User{UserID: "u1", Role: RoleFree, Enabled: true})
	ctx := context.Background()

	// 免费用户每日 10 次，逐次放行并计数
	for i := 0; i < 10; i++ {
		require.NoError(t, perm.Authorize(ctx, "u1", "", false))
	}
	assert.Equal(t, 10, quotaRepo.usage["u1"])

	// 第 11 次拒绝，剩余次数为 0
	err := perm.Authorize(ctx, "u1", "", false)
	require.Error(t, err)
	assert.True(t, chatErrors.IsQuotaExceeded(err))
	assert.Equal(t, "0", kerrors.FromError(err).Metadata["remaining"])
	// 拒绝不消耗配额
	assert.Equal(t, 10, quotaRepo.usage["u1"])
}

func TestAuthorizeMessageLimit(t *testing.T) {
	perm, quotaRepo := newTestPermission(&User{UserID: "u1", Role: RoleFree, Enabled: true})
	ctx := context.Background()

	quotaRepo.convCounts["conv-1"] = 50

	err := perm.Authorize(ctx, "u1", "conv-1", false)
	require.Error(t, err)
	assert.True(t, chatErrors.IsMessageLimitExceeded(err))

	// 换一个会话仍可对话
	require.NoError(t, perm.Authorize(ctx, "u1", "conv-2", false))
}

func TestAuthorizeSkipBypassesAllChecks(t *testing.T) {
	// 已禁用且配额超限的用户，skip 时仍放行
	perm, quotaRepo := newTestPermission(&User{UserID: "u1", Role: RoleFree, Enabled: false})
	quotaRepo.usage["u1"] = 100

	require.NoError(t, perm.Authorize(context.Background(), "u1", "conv-1", true))
	// skip 不触碰配额状态
	assert.Equal(t, 100, quotaRepo.usage["u1"])
}

func TestAuthorizeUserChecks(t *testing.T) {
	yesterday := time.Now().Add(-24 * time.Hour)

	perm, _ := newTestPermission(
		&User{UserID: "disabled", Role: RoleFree, Enabled: false},
		&User{UserID: "vip-expired", Role: RoleVip, Enabled: true, VipExpireAt: &yesterday},
		&User{UserID: "trial-expired", Role: RoleTrial, Enabled: true, TrialExpireAt: &yesterday},
	)
	ctx := context.Background()

	tests := []struct {
		name   string
		userID string
		reason string
	}{
		{"空用户ID", "", chatErrors.ReasonUserIDRequired},
		{"用户不存在", "ghost", chatErrors.ReasonUserNotFound},
		{"用户已禁用", "disabled", chatErrors.ReasonUserDisabled},
		{"VIP过期", "vip-expired", chatErrors.ReasonVipExpired},
		{"试用过期", "trial-expired", chatErrors.ReasonTrialExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := perm.Authorize(ctx, tt.userID, "", false)
			require.Error(t, err)
			assert.Equal(t, tt.reason, kerrors.Reason(err))
		})
	}
}

func TestAuthorizeEnterpriseUnbounded(t *testing.T) {
	perm, quotaRepo := newTestPermission(&User{UserID: "ent", Role: RoleEnterprise, Enabled: true})
	quotaRepo.usage["ent"] = 1000000
	quotaRepo.convCounts["conv-1"] = 1000000

	require.NoError(t, perm.Authorize(context.Background(), "ent", "conv-1", false))
}

func TestBumpConversation(t *testing.T) {
	perm, quotaRepo := newTestPermission()
	ctx := context.Background()

	// 一轮对话 = 用户消息 + 助手回复
	perm.BumpConversation(ctx, "conv-1")
	assert.Equal(t, 2, quotaRepo.convCounts["conv-1"])

	// 空会话ID不计数
	perm.BumpConversation(ctx, "")
	assert.Len(t, quotaRepo.convCounts, 1)
}

func TestRemainingQuota(t *testing.T) {
	perm, quotaRepo := newTestPermission()
	ctx := context.Background()
	user := &User{UserID: "u1", Role: RoleFree, Enabled: true}

	quotaRepo.usage["u1"] = 3
	remaining, err := perm.RemainingQuota(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 7, remaining)

	// 超额时下限为 0
	quotaRepo.usage["u1"] = 15
	remaining, err = perm.RemainingQuota(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}
