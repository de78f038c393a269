package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 配置中的时长类型，支持 "5s"、"10m" 等字符串写法
type Duration time.Duration

// UnmarshalJSON 实现 json.Unmarshaler（kratos config Scan 走 json 编解码）
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration value: %s", string(b))
	}
	// 纯数字按秒解释
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// AsDuration 转换为 time.Duration
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Bootstrap 启动配置
type Bootstrap struct {
	Server *Server `json:"server"`
	Data   *Data   `json:"data"`
	Chat   *Chat   `json:"chat"`
	Model  *Model  `json:"model"`
}

// Server 服务配置
type Server struct {
	Http *HTTP `json:"http"`
}

// HTTP HTTP 服务配置
type HTTP struct {
	Network string   `json:"network"`
	Addr    string   `json:"addr"`
	Timeout Duration `json:"timeout"`
}

// Data 数据层配置
type Data struct {
	Database *Database `json:"database"`
	Redis    *Redis    `json:"redis"`
	Rocketmq *Rocketmq `json:"rocketmq"`
}

// Database MySQL 配置
type Database struct {
	Source string `json:"source"`
}

// Redis Redis 配置
type Redis struct {
	Addr         string   `json:"addr"`
	Password     string   `json:"password"`
	Db           int      `json:"db"`
	ReadTimeout  Duration `json:"read_timeout"`
	WriteTimeout Duration `json:"write_timeout"`
}

// Rocketmq 使用量事件异步落库的 MQ 配置
type Rocketmq struct {
	Enabled     bool     `json:"enabled"`
	NameServers []string `json:"name_servers"`
	Topic       string   `json:"topic"`
	GroupName   string   `json:"group_name"`
	RetryTimes  int32    `json:"retry_times"`
}

// RoleLimit 角色限额（覆盖内置静态表时使用）
type RoleLimit struct {
	DailyQuota   int `json:"daily_quota"`
	MessageLimit int `json:"message_limit"`
}

// Chat 对话相关配置
type Chat struct {
	// MemoryBackend 会话记忆后端：mysql 或 redis
	MemoryBackend string `json:"memory_backend"`
	// MemoryWindow 每次请求注入的历史消息条数
	MemoryWindow int `json:"memory_window"`
	// MemoryMaxMessages Redis 后端单会话最多保留的消息数
	MemoryMaxMessages int `json:"memory_max_messages"`
	// MemoryTtl Redis 后端会话记忆过期时间
	MemoryTtl Duration `json:"memory_ttl"`
	// ConversationTtl 会话消息计数器过期时间
	ConversationTtl Duration `json:"conversation_ttl"`
	// RetentionDays 配额使用记录保留天数
	RetentionDays int `json:"retention_days"`
	// Roles 角色限额覆盖表，key 为 FREE/TRIAL/VIP/ENTERPRISE
	Roles map[string]*RoleLimit `json:"roles"`
}

// Model 模型服务（OpenAI 兼容接口）配置
type Model struct {
	BaseUrl     string   `json:"base_url"`
	ApiKey      string   `json:"api_key"`
	Name        string   `json:"name"`
	Timeout     Duration `json:"timeout"`
	Temperature float64  `json:"temperature"`
}
