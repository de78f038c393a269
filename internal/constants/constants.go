package constants

// 时间格式常量
const (
	// TimeFormatDate 日期格式 (YYYY-MM-DD)
	TimeFormatDate = "2006-01-02"
)

// Redis Key 前缀常量
const (
	// RedisKeyUsage 每日使用次数缓存 key 前缀，完整格式 user:usage:{date}:{userId}
	RedisKeyUsage = "user:usage:"
	// RedisKeyConversationCount 会话消息计数 key 前缀
	RedisKeyConversationCount = "conversation:message:count:"
	// RedisKeyChatMemory 会话记忆 key 前缀
	RedisKeyChatMemory = "chat:memory:"
	// RedisKeyConversationLock 会话级互斥锁 key 前缀
	RedisKeyConversationLock = "chat:conversation:lock:"
)

// 权限检查结果常量（用于指标）
const (
	// AuthResultAllowed 允许
	AuthResultAllowed = "allowed"
	// AuthResultDenied 拒绝
	AuthResultDenied = "denied"
	// AuthResultSkipped 跳过检查
	AuthResultSkipped = "skipped"
	// AuthResultError 错误
	AuthResultError = "error"
)

// 对话模式常量（用于指标）
const (
	// ChatModeCall 同步调用
	ChatModeCall = "call"
	// ChatModeStream 流式调用
	ChatModeStream = "stream"
)

// 调用结果常量（用于指标）
const (
	// ResultSuccess 成功
	ResultSuccess = "success"
	// ResultFailed 失败
	ResultFailed = "failed"
)

// 会话记忆后端常量
const (
	// MemoryBackendMySQL MySQL 后端
	MemoryBackendMySQL = "mysql"
	// MemoryBackendRedis Redis 后端
	MemoryBackendRedis = "redis"
)
