package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ChatMetrics 对话服务指标
type ChatMetrics struct {
	// 权限检查相关指标
	AuthCheckTotal    *prometheus.CounterVec // 权限检查总数（按结果、原因）
	AuthCheckDuration prometheus.Histogram   // 权限检查耗时

	// 对话相关指标
	ChatRequestTotal    *prometheus.CounterVec   // 对话请求总数（按模式、结果）
	ChatRequestDuration *prometheus.HistogramVec // 对话请求耗时

	// 模型调用相关指标
	ModelCallTotal    *prometheus.CounterVec // 模型调用总数（按状态）
	ModelCallDuration prometheus.Histogram   // 模型调用耗时

	// 配额使用相关指标
	UsageIncrementTotal     prometheus.Counter // 使用次数递增总数
	UsagePersistFailedTotal prometheus.Counter // 使用记录落库失败总数

	// 会话记忆相关指标
	MemoryOpTotal *prometheus.CounterVec // 记忆操作总数（按后端、操作）

	// 会话锁相关指标
	LockAcquireTotal    *prometheus.CounterVec // 锁获取总数（按结果）
	LockAcquireDuration prometheus.Histogram   // 锁获取耗时
}

// NewChatMetrics 创建对话服务指标
func NewChatMetrics() *ChatMetrics {
	return &ChatMetrics{
		AuthCheckTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_auth_check_total",
				Help: "Total number of authorization checks",
			},
			[]string{"result", "reason"}, // result: allowed/denied/skipped/error
		),
		AuthCheckDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chat_auth_check_duration_seconds",
				Help:    "Duration of authorization checks",
				Buckets: prometheus.DefBuckets,
			},
		),

		ChatRequestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_request_total",
				Help: "Total number of chat requests",
			},
			[]string{"mode", "result"}, // mode: call/stream
		),
		ChatRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chat_request_duration_seconds",
				Help:    "Duration of chat requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),

		ModelCallTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_model_call_total",
				Help: "Total number of model provider calls",
			},
			[]string{"status"}, // status: success/failed
		),
		ModelCallDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chat_model_call_duration_seconds",
				Help:    "Duration of model provider calls",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),

		UsageIncrementTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_usage_increment_total",
				Help: "Total number of daily usage increments",
			},
		),
		UsagePersistFailedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chat_usage_persist_failed_total",
				Help: "Total number of failed durable usage writes",
			},
		),

		MemoryOpTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_memory_op_total",
				Help: "Total number of conversation memory operations",
			},
			[]string{"backend", "op"}, // op: append/get/clear
		),

		LockAcquireTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_conversation_lock_acquire_total",
				Help: "Total number of conversation lock acquisition attempts",
			},
			[]string{"result"},
		),
		LockAcquireDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chat_conversation_lock_acquire_duration_seconds",
				Help:    "Duration of conversation lock acquisition",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
		),
	}
}

// 全局指标实例
var defaultMetrics *ChatMetrics

// InitMetrics 初始化全局指标
func InitMetrics() {
	defaultMetrics = NewChatMetrics()
}

// GetMetrics 获取全局指标实例
func GetMetrics() *ChatMetrics {
	if defaultMetrics == nil {
		InitMetrics()
	}
	return defaultMetrics
}
