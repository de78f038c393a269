package model

import (
	"time"
)

// UserQuotaUsage 用户配额使用记录表
// 每用户每天一行，首次使用时创建，之后原子累加
type UserQuotaUsage struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:uk_user_date,priority:1"`
	UsageDate  string    `gorm:"type:date;not null;uniqueIndex:uk_user_date,priority:2"` // 2006-01-02
	UsageCount int       `gorm:"not null;default:0"`
	QuotaLimit int       `gorm:"not null;default:0"` // 创建当时的角色配额快照
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (UserQuotaUsage) TableName() string {
	return "user_quota_usage"
}
