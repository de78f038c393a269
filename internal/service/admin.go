package service

import (
	"chat-service/internal/biz"
	chatErrors "chat-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// AdminService 用户与配额管理 HTTP 服务
type AdminService struct {
	users *biz.UserUseCase
	quota *biz.QuotaUseCase
	perm  *biz.PermissionUseCase
	conf  *biz.ChatConfig
	log   *log.Helper
}

// NewAdminService 创建管理服务
func NewAdminService(users *biz.UserUseCase, quota *biz.QuotaUseCase, perm *biz.PermissionUseCase, conf *biz.ChatConfig, logger log.Logger) *AdminService {
	return &AdminService{
		users: users,
		quota: quota,
		perm:  perm,
		conf:  conf,
		log:   log.NewHelper(logger),
	}
}

// UsageReply 用户当日用量
type UsageReply struct {
	UserID     string `json:"user_id"`
	Role       string `json:"role"`
	Enabled    bool   `json:"enabled"`
	UsedToday  int    `json:"used_today"`
	DailyQuota int    `json:"daily_quota"`
	Remaining  int    `json:"remaining"`
}

// UpgradeVipRequest VIP 升级请求
type UpgradeVipRequest struct {
	Days int `json:"days"`
}

// OperationReply 管理操作通用响应
type OperationReply struct {
	UserID string `json:"user_id"`
	Result string `json:"result"`
}

// HandleGetUsage 查询用户当日用量
// GET /v1/admin/users/{id}/usage
func (s *AdminService) HandleGetUsage(ctx http.Context) error {
	userID := ctx.Vars().Get("id")

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return chatErrors.ErrorUserNotFound(userID)
	}

	used, err := s.quota.GetTodayUsage(ctx, userID)
	if err != nil {
		return err
	}
	remaining, err := s.perm.RemainingQuota(ctx, user)
	if err != nil {
		return err
	}

	return ctx.Result(200, &UsageReply{
		UserID:     user.UserID,
		Role:       string(user.Role),
		Enabled:    user.Enabled,
		UsedToday:  used,
		DailyQuota: s.conf.Limits(user.Role).DailyQuota,
		Remaining:  remaining,
	})
}

// HandleEnableUser 启用用户
// POST /v1/admin/users/{id}/enable
func (s *AdminService) HandleEnableUser(ctx http.Context) error {
	userID := ctx.Vars().Get("id")
	if err := s.users.EnableUser(ctx, userID); err != nil {
		return err
	}
	return ctx.Result(200, &OperationReply{UserID: userID, Result: "enabled"})
}

// HandleDisableUser 禁用用户
// POST /v1/admin/users/{id}/disable
func (s *AdminService) HandleDisableUser(ctx http.Context) error {
	userID := ctx.Vars().Get("id")
	if err := s.users.DisableUser(ctx, userID); err != nil {
		return err
	}
	return ctx.Result(200, &OperationReply{UserID: userID, Result: "disabled"})
}

// HandleUpgradeVip 升级用户为 VIP
// POST /v1/admin/users/{id}/vip
func (s *AdminService) HandleUpgradeVip(ctx http.Context) error {
	userID := ctx.Vars().Get("id")

	var req UpgradeVipRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := s.users.UpgradeToVip(ctx, userID, req.Days); err != nil {
		return err
	}
	return ctx.Result(200, &OperationReply{UserID: userID, Result: "upgraded"})
}

// HandleResetQuota 重置用户今日配额
// POST /v1/admin/users/{id}/quota/reset
func (s *AdminService) HandleResetQuota(ctx http.Context) error {
	userID := ctx.Vars().Get("id")
	if err := s.quota.Reset(ctx, userID); err != nil {
		return err
	}
	return ctx.Result(200, &OperationReply{UserID: userID, Result: "reset"})
}
