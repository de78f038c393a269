package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// QuotaRepo 配额数据层接口（定义在 biz 层）
// 使用次数按服务本地时区的自然日计数，缓存为快路径，持久层为最终事实
type QuotaRepo interface {
	// GetTodayUsage 获取今日使用次数
	GetTodayUsage(ctx context.Context, userID string) (int, error)
	// IncrementUsage 今日使用次数 +1，返回新计数；持久层落库失败降级为日志告警
	IncrementUsage(ctx context.Context, userID string, quotaLimit int) (int64, error)
	// ResetToday 清除当日的缓存计数与持久记录
	ResetToday(ctx context.Context, userID string) error
	// PurgeBefore 删除指定日期之前的使用记录，返回删除行数
	PurgeBefore(ctx context.Context, date time.Time) (int64, error)
	// ApplyUsageEvents 批量应用使用量事件（MQ 消费路径）
	ApplyUsageEvents(ctx context.Context, events []*UsageEvent) error

	// GetConversationMessageCount 获取会话消息计数
	GetConversationMessageCount(ctx context.Context, conversationID string) (int, error)
	// IncrementConversationMessageCount 会话消息计数 +n
	IncrementConversationMessageCount(ctx context.Context, conversationID string, n int) error
}

// QuotaUseCase 配额业务逻辑
type QuotaUseCase struct {
	repo QuotaRepo
	conf *ChatConfig
	log  *log.Helper
}

// NewQuotaUseCase 创建配额 UseCase
func NewQuotaUseCase(repo QuotaRepo, conf *ChatConfig, logger log.Logger) *QuotaUseCase {
	return &QuotaUseCase{
		repo: repo,
		conf: conf,
		log:  log.NewHelper(logger),
	}
}

// GetTodayUsage 获取今日使用次数
func (uc *QuotaUseCase) GetTodayUsage(ctx context.Context, userID string) (int, error) {
	return uc.repo.GetTodayUsage(ctx, userID)
}

// Increment 今日使用次数 +1
func (uc *QuotaUseCase) Increment(ctx context.Context, userID string, quotaLimit int) (int64, error) {
	return uc.repo.IncrementUsage(ctx, userID, quotaLimit)
}

// Reset 重置今日配额
func (uc *QuotaUseCase) Reset(ctx context.Context, userID string) error {
	if err := uc.repo.ResetToday(ctx, userID); err != nil {
		return err
	}
	uc.log.Infof("Reset quota for user: %s", userID)
	return nil
}

// ConversationMessageCount 获取会话消息计数
func (uc *QuotaUseCase) ConversationMessageCount(ctx context.Context, conversationID string) (int, error) {
	return uc.repo.GetConversationMessageCount(ctx, conversationID)
}

// BumpConversationMessageCount 会话消息计数 +n
func (uc *QuotaUseCase) BumpConversationMessageCount(ctx context.Context, conversationID string, n int) error {
	return uc.repo.IncrementConversationMessageCount(ctx, conversationID, n)
}

// PurgeExpired 清理保留期之外的使用记录
func (uc *QuotaUseCase) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -uc.conf.RetentionDays)
	deleted, err := uc.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	uc.log.Infof("Cleaned up %d expired quota usage records", deleted)
	return deleted, nil
}
