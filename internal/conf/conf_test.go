package conf

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshalString(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"5s"`), &d))
	assert.Equal(t, 5*time.Second, d.AsDuration())

	require.NoError(t, json.Unmarshal([]byte(`"1h30m"`), &d))
	assert.Equal(t, 90*time.Minute, d.AsDuration())
}

func TestDurationUnmarshalNumber(t *testing.T) {
	// 纯数字按秒解释
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`60`), &d))
	assert.Equal(t, time.Minute, d.AsDuration())
}

func TestDurationUnmarshalInvalid(t *testing.T) {
	var d Duration
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestBootstrapScan(t *testing.T) {
	raw := `{
		"server": {"http": {"addr": "0.0.0.0:8000", "timeout": "60s"}},
		"data": {
			"redis": {"addr": "127.0.0.1:6379", "read_timeout": "0.2s"},
			"rocketmq": {"enabled": true, "name_servers": ["127.0.0.1:9876"], "retry_times": 3}
		},
		"chat": {"memory_backend": "redis", "memory_ttl": "12h"}
	}`

	var bc Bootstrap
	require.NoError(t, json.Unmarshal([]byte(raw), &bc))

	assert.Equal(t, "0.0.0.0:8000", bc.Server.Http.Addr)
	assert.Equal(t, time.Minute, bc.Server.Http.Timeout.AsDuration())
	assert.Equal(t, 200*time.Millisecond, bc.Data.Redis.ReadTimeout.AsDuration())
	assert.True(t, bc.Data.Rocketmq.Enabled)
	assert.Equal(t, int32(3), bc.Data.Rocketmq.RetryTimes)
	assert.Equal(t, "redis", bc.Chat.MemoryBackend)
	assert.Equal(t, 12*time.Hour, bc.Chat.MemoryTtl.AsDuration())
}
