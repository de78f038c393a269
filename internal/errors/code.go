package errors

import (
	"fmt"
	"strconv"

	kerrors "github.com/go-kratos/kratos/v2/errors"
)

// 权限校验错误码定义
// 策略类错误：可预期、归因于调用方，带机器可读 Reason 和用户可读 Message，
// 永不重试，在任何模型调用之前短路整个调用链。

// Reason 常量
const (
	// ReasonUserIDRequired 用户ID为空
	ReasonUserIDRequired = "USER_ID_REQUIRED"
	// ReasonUserNotFound 用户不存在
	ReasonUserNotFound = "USER_NOT_FOUND"
	// ReasonUserDisabled 用户已被禁用
	ReasonUserDisabled = "USER_DISABLED"
	// ReasonVipExpired VIP会员已过期
	ReasonVipExpired = "VIP_EXPIRED"
	// ReasonTrialExpired 试用期已过期
	ReasonTrialExpired = "TRIAL_EXPIRED"
	// ReasonQuotaExceeded 今日对话次数已用完
	ReasonQuotaExceeded = "QUOTA_EXCEEDED"
	// ReasonMessageLimitExceeded 单个会话消息数超限
	ReasonMessageLimitExceeded = "MESSAGE_LIMIT_EXCEEDED"
)

// ErrorUserIDRequired 用户ID不能为空
func ErrorUserIDRequired() *kerrors.Error {
	return kerrors.New(400, ReasonUserIDRequired, "用户ID不能为空")
}

// ErrorUserNotFound 用户不存在
func ErrorUserNotFound(userID string) *kerrors.Error {
	return kerrors.New(403, ReasonUserNotFound, "用户不存在").
		WithMetadata(map[string]string{"userId": userID})
}

// ErrorUserDisabled 用户已被禁用
func ErrorUserDisabled(userID string) *kerrors.Error {
	return kerrors.New(403, ReasonUserDisabled, "用户已被禁用").
		WithMetadata(map[string]string{"userId": userID})
}

// ErrorVipExpired VIP会员已过期
func ErrorVipExpired(userID string) *kerrors.Error {
	return kerrors.New(403, ReasonVipExpired, "VIP会员已过期").
		WithMetadata(map[string]string{"userId": userID})
}

// ErrorTrialExpired 试用期已过期
func ErrorTrialExpired(userID string) *kerrors.Error {
	return kerrors.New(403, ReasonTrialExpired, "试用期已过期").
		WithMetadata(map[string]string{"userId": userID})
}

// ErrorQuotaExceeded 今日对话次数已用完
func ErrorQuotaExceeded(userID string, remaining int) *kerrors.Error {
	return kerrors.New(429, ReasonQuotaExceeded,
		fmt.Sprintf("今日对话次数已用完，剩余次数: %d", remaining)).
		WithMetadata(map[string]string{
			"userId":    userID,
			"remaining": strconv.Itoa(remaining),
		})
}

// ErrorMessageLimitExceeded 单个会话消息数超限
func ErrorMessageLimitExceeded(userID string, limit int) *kerrors.Error {
	return kerrors.New(429, ReasonMessageLimitExceeded,
		fmt.Sprintf("单次对话消息数超过限制: %d条", limit)).
		WithMetadata(map[string]string{
			"userId": userID,
			"limit":  strconv.Itoa(limit),
		})
}

// IsQuotaExceeded 判断是否为配额超限错误
func IsQuotaExceeded(err error) bool {
	return kerrors.Reason(err) == ReasonQuotaExceeded
}

// IsMessageLimitExceeded 判断是否为会话消息数超限错误
func IsMessageLimitExceeded(err error) bool {
	return kerrors.Reason(err) == ReasonMessageLimitExceeded
}

// IsPolicyError 判断是否为策略类错误（归因于调用方，不应重试）
func IsPolicyError(err error) bool {
	switch kerrors.Reason(err) {
	case ReasonUserIDRequired, ReasonUserNotFound, ReasonUserDisabled,
		ReasonVipExpired, ReasonTrialExpired,
		ReasonQuotaExceeded, ReasonMessageLimitExceeded:
		return true
	}
	return false
}
