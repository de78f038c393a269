package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// Role 用户角色
type Role string

// 用户角色常量
const (
	// RoleFree 免费用户
	RoleFree Role = "FREE"
	// RoleTrial 试用用户
	RoleTrial Role = "TRIAL"
	// RoleVip VIP用户
	RoleVip Role = "VIP"
	// RoleEnterprise 企业用户
	RoleEnterprise Role = "ENTERPRISE"
)

// ParseRole 解析角色编码，未知编码按免费用户处理
func ParseRole(code string) Role {
	switch Role(code) {
	case RoleFree, RoleTrial, RoleVip, RoleEnterprise:
		return Role(code)
	}
	return RoleFree
}

// User 用户领域对象
type User struct {
	UserID        string
	Username      string
	Email         string
	Phone         string
	Role          Role
	Enabled       bool
	VipExpireAt   *time.Time
	TrialExpireAt *time.Time
}

// Valid 检查用户是否有效：启用，且 VIP/试用未过期
func (u *User) Valid(now time.Time) bool {
	if !u.Enabled {
		return false
	}
	switch u.Role {
	case RoleVip:
		if u.VipExpireAt != nil {
			return now.Before(*u.VipExpireAt)
		}
	case RoleTrial:
		if u.TrialExpireAt != nil {
			return now.Before(*u.TrialExpireAt)
		}
	}
	return true
}

// UserRepo 用户数据层接口（定义在 biz 层）
type UserRepo interface {
	// GetByUserID 按业务用户ID查询，不存在时返回 (nil, nil)
	GetByUserID(ctx context.Context, userID string) (*User, error)
	UpdateEnabled(ctx context.Context, userID string, enabled bool) error
	UpdateRole(ctx context.Context, userID string, role Role, expireAt *time.Time) error
}

// UserUseCase 用户业务逻辑
type UserUseCase struct {
	repo UserRepo
	log  *log.Helper
}

// NewUserUseCase 创建用户 UseCase
func NewUserUseCase(repo UserRepo, logger log.Logger) *UserUseCase {
	return &UserUseCase{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// GetUser 获取用户信息
func (uc *UserUseCase) GetUser(ctx context.Context, userID string) (*User, error) {
	return uc.repo.GetByUserID(ctx, userID)
}

// EnableUser 启用用户
func (uc *UserUseCase) EnableUser(ctx context.Context, userID string) error {
	if err := uc.repo.UpdateEnabled(ctx, userID, true); err != nil {
		return err
	}
	uc.log.Infof("Enabled user: %s", userID)
	return nil
}

// DisableUser 禁用用户
func (uc *UserUseCase) DisableUser(ctx context.Context, userID string) error {
	if err := uc.repo.UpdateEnabled(ctx, userID, false); err != nil {
		return err
	}
	uc.log.Infof("Disabled user: %s", userID)
	return nil
}

// UpgradeToVip 升级用户为VIP，有效期 days 天
func (uc *UserUseCase) UpgradeToVip(ctx context.Context, userID string, days int) error {
	if days <= 0 {
		return fmt.Errorf("invalid vip days: %d", days)
	}
	expireAt := time.Now().AddDate(0, 0, days)
	if err := uc.repo.UpdateRole(ctx, userID, RoleVip, &expireAt); err != nil {
		return err
	}
	uc.log.Infof("Upgraded user %s to VIP for %d days, expire at %s",
		userID, days, expireAt.Format(time.RFC3339))
	return nil
}
