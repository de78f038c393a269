package model

import (
	"time"
)

// SysUser 系统用户表
type SysUser struct {
	ID            uint64     `gorm:"primaryKey;autoIncrement"`
	UserID        string     `gorm:"uniqueIndex;type:varchar(36);not null"` // 业务用户ID
	Username      string     `gorm:"type:varchar(64)"`
	Email         string     `gorm:"type:varchar(128)"`
	Phone         string     `gorm:"type:varchar(32)"`
	Role          string     `gorm:"type:varchar(16);not null;default:FREE"`
	Enabled       bool       `gorm:"not null;default:true"`
	VipExpireAt   *time.Time `gorm:"type:datetime"`
	TrialExpireAt *time.Time `gorm:"type:datetime"`
	CreatedAt     time.Time  `gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime"`
	IsDel         bool       `gorm:"not null;default:false"` // 逻辑删除标记
}

// TableName 指定表名
func (SysUser) TableName() string {
	return "sys_user"
}
