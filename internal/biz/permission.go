package biz

import (
	"context"
	"time"

	"chat-service/internal/constants"
	chatErrors "chat-service/internal/errors"
	"chat-service/internal/metrics"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// PermissionUseCase 权限校验业务逻辑
//
// 校验顺序：
//  1. skip 直接放行，不触碰任何配额状态
//  2. 用户ID非空
//  3. 用户存在
//  4. 用户已启用
//  5. VIP/试用未过期
//  6. 今日配额未用完
//  7. 会话消息数未超限（仅当携带会话ID）
//
// 校验通过后今日使用次数 +1。计数发生在模型调用之前，
// 模型调用失败仍会消耗一次配额，取保守口径。
type PermissionUseCase struct {
	users   *UserUseCase
	quota   *QuotaUseCase
	conf    *ChatConfig
	log     *log.Helper
	metrics *metrics.ChatMetrics
}

// NewPermissionUseCase 创建权限校验 UseCase
func NewPermissionUseCase(users *UserUseCase, quota *QuotaUseCase, conf *ChatConfig, logger log.Logger) *PermissionUseCase {
	return &PermissionUseCase{
		users:   users,
		quota:   quota,
		conf:    conf,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

// Authorize 校验一次对话调用，通过时今日使用次数 +1
func (uc *PermissionUseCase) Authorize(ctx context.Context, userID, conversationID string, skip bool) error {
	if skip {
		if uc.metrics != nil {
			uc.metrics.AuthCheckTotal.WithLabelValues(constants.AuthResultSkipped, "").Inc()
		}
		return nil
	}

	startTime := time.Now()
	defer func() {
		if uc.metrics != nil {
			uc.metrics.AuthCheckDuration.Observe(time.Since(startTime).Seconds())
		}
	}()

	if userID == "" {
		return uc.deny(chatErrors.ErrorUserIDRequired())
	}

	user, err := uc.users.GetUser(ctx, userID)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.AuthCheckTotal.WithLabelValues(constants.AuthResultError, "").Inc()
		}
		return err
	}
	if user == nil {
		return uc.deny(chatErrors.ErrorUserNotFound(userID))
	}
	if !user.Enabled {
		return uc.deny(chatErrors.ErrorUserDisabled(userID))
	}
	if !user.Valid(time.Now()) {
		switch user.Role {
		case RoleVip:
			return uc.deny(chatErrors.ErrorVipExpired(userID))
		case RoleTrial:
			return uc.deny(chatErrors.ErrorTrialExpired(userID))
		}
	}

	limits := uc.conf.Limits(user.Role)

	usage, err := uc.quota.GetTodayUsage(ctx, userID)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.AuthCheckTotal.WithLabelValues(constants.AuthResultError, "").Inc()
		}
		return err
	}
	if usage >= limits.DailyQuota {
		remaining := limits.DailyQuota - usage
		if remaining < 0 {
			remaining = 0
		}
		return uc.deny(chatErrors.ErrorQuotaExceeded(userID, remaining))
	}

	if conversationID != "" {
		count, err := uc.quota.ConversationMessageCount(ctx, conversationID)
		if err != nil {
			if uc.metrics != nil {
				uc.metrics.AuthCheckTotal.WithLabelValues(constants.AuthResultError, "").Inc()
			}
			return err
		}
		if count >= limits.MessageLimit {
			return uc.deny(chatErrors.ErrorMessageLimitExceeded(userID, limits.MessageLimit))
		}
	}

	uc.log.WithContext(ctx).Infof("权限校验通过 - 用户: %s, 角色: %s, 今日剩余: %d/%d",
		user.Username, user.Role, limits.DailyQuota-usage, limits.DailyQuota)

	// 使用计数为可用性优先的弱一致记账，失败不阻断本次请求
	if _, err := uc.quota.Increment(ctx, userID, limits.DailyQuota); err != nil {
		uc.log.WithContext(ctx).Warnf("Failed to increment usage for user %s: %v", userID, err)
	}
	if uc.metrics != nil {
		uc.metrics.AuthCheckTotal.WithLabelValues(constants.AuthResultAllowed, "").Inc()
	}
	return nil
}

// BumpConversation 会话消息计数 +2（用户一条 + 助手一条）
// 仅在下游调用成功后执行
func (uc *PermissionUseCase) BumpConversation(ctx context.Context, conversationID string) {
	if conversationID == "" {
		return
	}
	if err := uc.quota.BumpConversationMessageCount(ctx, conversationID, 2); err != nil {
		uc.log.WithContext(ctx).Warnf("Failed to bump message count for conversation %s: %v", conversationID, err)
	}
}

// RemainingQuota 返回用户今日剩余配额
func (uc *PermissionUseCase) RemainingQuota(ctx context.Context, user *User) (int, error) {
	usage, err := uc.quota.GetTodayUsage(ctx, user.UserID)
	if err != nil {
		return 0, err
	}
	remaining := uc.conf.Limits(user.Role).DailyQuota - usage
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (uc *PermissionUseCase) deny(err *kerrors.Error) error {
	if uc.metrics != nil {
		uc.metrics.AuthCheckTotal.WithLabelValues(constants.AuthResultDenied, err.Reason).Inc()
	}
	return err
}
