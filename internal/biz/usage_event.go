package biz

import "time"

// UsageEvent is the message sent to RocketMQ for asynchronous batch persistence
// of daily usage increments
type UsageEvent struct {
	UserID     string    `json:"user_id"`
	UsageDate  string    `json:"usage_date"` // 2006-01-02
	Count      int       `json:"count"`
	QuotaLimit int       `json:"quota_limit"`
	OccurredAt time.Time `json:"occurred_at"`
}
