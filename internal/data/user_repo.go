package data

import (
	"context"
	"errors"
	"time"

	"chat-service/internal/biz"
	"chat-service/internal/data/model"
	chatErrors "chat-service/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// userRepo 用户数据访问，实现 biz.UserRepo 接口
type userRepo struct {
	data *Data
	log  *log.Helper
}

// NewUserRepo 创建用户 repo
func NewUserRepo(data *Data, logger log.Logger) biz.UserRepo {
	return &userRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetByUserID 按业务用户ID查询，不存在时返回 (nil, nil)
func (r *userRepo) GetByUserID(ctx context.Context, userID string) (*biz.User, error) {
	var m model.SysUser
	if err := r.data.db.WithContext(ctx).
		Where("user_id = ? AND is_del = ?", userID, false).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &biz.User{
		UserID:        m.UserID,
		Username:      m.Username,
		Email:         m.Email,
		Phone:         m.Phone,
		Role:          biz.ParseRole(m.Role),
		Enabled:       m.Enabled,
		VipExpireAt:   m.VipExpireAt,
		TrialExpireAt: m.TrialExpireAt,
	}, nil
}

// UpdateEnabled 更新用户启用状态
func (r *userRepo) UpdateEnabled(ctx context.Context, userID string, enabled bool) error {
	result := r.data.db.WithContext(ctx).Model(&model.SysUser{}).
		Where("user_id = ? AND is_del = ?", userID, false).
		Update("enabled", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return chatErrors.ErrorUserNotFound(userID)
	}
	return nil
}

// UpdateRole 更新用户角色与对应的有效期
func (r *userRepo) UpdateRole(ctx context.Context, userID string, role biz.Role, expireAt *time.Time) error {
	updates := map[string]interface{}{
		"role": string(role),
	}
	switch role {
	case biz.RoleVip:
		updates["vip_expire_at"] = expireAt
	case biz.RoleTrial:
		updates["trial_expire_at"] = expireAt
	}

	result := r.data.db.WithContext(ctx).Model(&model.SysUser{}).
		Where("user_id = ? AND is_del = ?", userID, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return chatErrors.ErrorUserNotFound(userID)
	}
	return nil
}
