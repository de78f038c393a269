package data

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"chat-service/internal/biz"
	"chat-service/internal/constants"
	"chat-service/internal/data/model"
	"chat-service/internal/metrics"

	"github.com/apache/rocketmq-client-go/v2/primitive"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// quotaRepo 配额数据访问，实现 biz.QuotaRepo 接口
//
// 每日使用次数采用双写：Redis 计数器为快路径（权限检查读这里），
// MySQL user_quota_usage 表为最终事实（审计与缓存回填来源）。
// 落库走 MQ 异步批量；MQ 未启用时降级为同步 upsert。
type quotaRepo struct {
	data    *Data
	conf    *biz.ChatConfig
	log     *log.Helper
	metrics *metrics.ChatMetrics
}

// NewQuotaRepo 创建配额 repo
func NewQuotaRepo(data *Data, conf *biz.ChatConfig, logger log.Logger) biz.QuotaRepo {
	return &quotaRepo{
		data:    data,
		conf:    conf,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

// usageKey 每日使用次数缓存 key：user:usage:{date}:{userId}
func usageKey(date, userID string) string {
	return constants.RedisKeyUsage + date + ":" + userID
}

// secondsUntilMidnight 距当日（本地时区）结束的剩余时长
// 计数器在零点自然过期，实现按自然日重置
func secondsUntilMidnight(now time.Time) time.Duration {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return midnight.Sub(now)
}

// GetTodayUsage 获取今日使用次数
// 优先读 Redis，未命中时回源数据库并回填缓存
func (r *quotaRepo) GetTodayUsage(ctx context.Context, userID string) (int, error) {
	now := time.Now()
	date := now.Format(constants.TimeFormatDate)
	key := usageKey(date, userID)

	val, err := r.data.rdb.Get(ctx, key).Result()
	if err == nil {
		count, parseErr := strconv.Atoi(val)
		if parseErr == nil {
			return count, nil
		}
		r.log.Warnf("Invalid usage counter for key %s: %q", key, val)
	} else if !errors.Is(err, redis.Nil) {
		return 0, err
	}

	// 缓存未命中，从数据库查询
	var m model.UserQuotaUsage
	if err := r.data.db.WithContext(ctx).
		Where("user_id = ? AND usage_date = ?", userID, date).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}

	// 回填缓存，保持零点过期
	if err := r.data.rdb.Set(ctx, key, m.UsageCount, secondsUntilMidnight(now)).Err(); err != nil {
		r.log.Warnf("Failed to backfill usage cache for user %s: %v", userID, err)
	}

	return m.UsageCount, nil
}

// IncrementUsage 今日使用次数 +1，返回新计数
// Redis 自增成功即视为成功；持久层落库失败仅告警，不回滚计数
func (r *quotaRepo) IncrementUsage(ctx context.Context, userID string, quotaLimit int) (int64, error) {
	now := time.Now()
	date := now.Format(constants.TimeFormatDate)
	key := usageKey(date, userID)

	newCount, err := r.data.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// 首次自增时设置过期时间，零点重置
	if newCount == 1 {
		if err := r.data.rdb.Expire(ctx, key, secondsUntilMidnight(now)).Err(); err != nil {
			r.log.Warnf("Failed to set expiry on usage counter %s: %v", key, err)
		}
	}

	if r.metrics != nil {
		r.metrics.UsageIncrementTotal.Inc()
	}

	if err := r.persistUsage(ctx, userID, date, 1, quotaLimit, now); err != nil {
		// 可用性优先：落库失败不影响本次对话
		r.log.Warnf("Failed to persist usage for user %s on %s: %v", userID, date, err)
		if r.metrics != nil {
			r.metrics.UsagePersistFailedTotal.Inc()
		}
	}

	return newCount, nil
}

// persistUsage 将使用量写入持久层
// MQ 启用时发送事件异步批量落库，否则同步 upsert
func (r *quotaRepo) persistUsage(ctx context.Context, userID, date string, count, quotaLimit int, now time.Time) error {
	if r.data.mq != nil {
		event := &biz.UsageEvent{
			UserID:     userID,
			UsageDate:  date,
			Count:      count,
			QuotaLimit: quotaLimit,
			OccurredAt: now,
		}
		msgBytes, _ := json.Marshal(event)
		msg := primitive.NewMessage(r.data.conf.Data.Rocketmq.Topic, msgBytes)

		if _, err := r.data.mq.SendSync(ctx, msg); err != nil {
			r.log.Errorf("Send RocketMQ failed: %v", err)
			// 降级为同步落库
			return r.upsertUsage(ctx, userID, date, count, quotaLimit)
		}
		return nil
	}

	return r.upsertUsage(ctx, userID, date, count, quotaLimit)
}

// upsertUsage 原子累加当日使用记录，不存在时创建
func (r *quotaRepo) upsertUsage(ctx context.Context, userID, date string, count, quotaLimit int) error {
	m := model.UserQuotaUsage{
		UserID:     userID,
		UsageDate:  date,
		UsageCount: count,
		QuotaLimit: quotaLimit,
	}
	return r.data.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "usage_date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + ?", count),
		}),
	}).Create(&m).Error
}

// ResetToday 清除当日的缓存计数与持久记录
func (r *quotaRepo) ResetToday(ctx context.Context, userID string) error {
	date := time.Now().Format(constants.TimeFormatDate)

	if err := r.data.rdb.Del(ctx, usageKey(date, userID)).Err(); err != nil {
		return err
	}
	return r.data.db.WithContext(ctx).
		Where("user_id = ? AND usage_date = ?", userID, date).
		Delete(&model.UserQuotaUsage{}).Error
}

// PurgeBefore 删除指定日期之前的使用记录，返回删除行数
func (r *quotaRepo) PurgeBefore(ctx context.Context, date time.Time) (int64, error) {
	result := r.data.db.WithContext(ctx).
		Where("usage_date < ?", date.Format(constants.TimeFormatDate)).
		Delete(&model.UserQuotaUsage{})
	return result.RowsAffected, result.Error
}

// ApplyUsageEvents 批量应用使用量事件（MQ 消费路径）
// 同一用户同一天的事件先合并再落库，减少 upsert 次数
func (r *quotaRepo) ApplyUsageEvents(ctx context.Context, events []*biz.UsageEvent) error {
	type usageAgg struct {
		count      int
		quotaLimit int
	}
	merged := make(map[[2]string]*usageAgg)
	var order [][2]string
	for _, event := range events {
		if event == nil || event.UserID == "" || event.UsageDate == "" {
			continue
		}
		k := [2]string{event.UserID, event.UsageDate}
		agg, ok := merged[k]
		if !ok {
			agg = &usageAgg{quotaLimit: event.QuotaLimit}
			merged[k] = agg
			order = append(order, k)
		}
		agg.count += event.Count
	}

	for _, k := range order {
		agg := merged[k]
		if err := r.upsertUsage(ctx, k[0], k[1], agg.count, agg.quotaLimit); err != nil {
			return err
		}
	}
	return nil
}

// GetConversationMessageCount 获取会话消息计数
func (r *quotaRepo) GetConversationMessageCount(ctx context.Context, conversationID string) (int, error) {
	val, err := r.data.rdb.Get(ctx, constants.RedisKeyConversationCount+conversationID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementConversationMessageCount 会话消息计数 +n
// 计数器首次创建时设置过期时间，会话空闲超时后计数自动清零
func (r *quotaRepo) IncrementConversationMessageCount(ctx context.Context, conversationID string, n int) error {
	key := constants.RedisKeyConversationCount + conversationID
	newCount, err := r.data.rdb.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return err
	}
	if newCount == int64(n) {
		if err := r.data.rdb.Expire(ctx, key, r.conf.ConversationTTL).Err(); err != nil {
			r.log.Warnf("Failed to set expiry on conversation counter %s: %v", key, err)
		}
	}
	return nil
}
