package data

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chat-service/internal/biz"
	"chat-service/internal/conf"
	"chat-service/internal/constants"
	"chat-service/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-resty/resty/v2"
)

// modelClient 模型服务客户端，对接 OpenAI 兼容的 chat completions 接口
// 实现 biz.ChatModel 接口
type modelClient struct {
	client      *resty.Client
	name        string
	temperature float64
	log         *log.Helper
	metrics     *metrics.ChatMetrics
}

// NewModelClient 创建模型服务客户端
func NewModelClient(c *conf.Bootstrap, logger log.Logger) (biz.ChatModel, error) {
	if c.Model == nil || c.Model.BaseUrl == "" {
		return nil, fmt.Errorf("model config is nil or base_url is empty")
	}

	timeout := c.Model.Timeout.AsDuration()
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(c.Model.BaseUrl, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if c.Model.ApiKey != "" {
		client.SetAuthToken(c.Model.ApiKey)
	}

	return &modelClient{
		client:      client,
		name:        c.Model.Name,
		temperature: c.Model.Temperature,
		log:         log.NewHelper(logger),
		metrics:     metrics.GetMetrics(),
	}, nil
}

// 请求/响应报文结构（OpenAI chat completions 格式）

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string                  `json:"model"`
	Messages    []chatCompletionMessage `json:"messages"`
	Temperature float64                 `json:"temperature,omitempty"`
	Stream      bool                    `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// buildPayload 将领域请求转为模型服务报文：系统提示词 + 历史 + 当前用户消息
func (m *modelClient) buildPayload(req *biz.ChatRequest, stream bool) *chatCompletionRequest {
	messages := make([]chatCompletionMessage, 0, len(req.History)+2)
	if req.SystemText != "" {
		messages = append(messages, chatCompletionMessage{
			Role:    string(biz.MessageRoleSystem),
			Content: req.SystemText,
		})
	}
	for _, msg := range req.History {
		messages = append(messages, chatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	messages = append(messages, chatCompletionMessage{
		Role:    string(biz.MessageRoleUser),
		Content: req.UserText,
	})

	return &chatCompletionRequest{
		Model:       m.name,
		Messages:    messages,
		Temperature: m.temperature,
		Stream:      stream,
	}
}

// Call 同步调用模型
func (m *modelClient) Call(ctx context.Context, req *biz.ChatRequest) (*biz.ChatResponse, error) {
	startTime := time.Now()

	var result chatCompletionResponse
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(m.buildPayload(req, false)).
		SetResult(&result).
		SetError(&result).
		Post("/chat/completions")

	m.observeCall(startTime, err == nil && resp != nil && resp.IsSuccess())

	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	if !resp.IsSuccess() {
		if result.Error != nil {
			return nil, fmt.Errorf("model call failed: %s (%s)", result.Error.Message, result.Error.Type)
		}
		return nil, fmt.Errorf("model call failed: status %d", resp.StatusCode())
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	return &biz.ChatResponse{Text: result.Choices[0].Message.Content}, nil
}

// Stream 流式调用模型，按 SSE 协议解析增量片段
func (m *modelClient) Stream(ctx context.Context, req *biz.ChatRequest) (<-chan biz.ChatChunk, error) {
	startTime := time.Now()

	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(m.buildPayload(req, true)).
		SetDoNotParseResponse(true).
		Post("/chat/completions")
	if err != nil {
		m.observeCall(startTime, false)
		return nil, fmt.Errorf("model stream failed: %w", err)
	}
	if resp.StatusCode() >= 400 {
		resp.RawBody().Close()
		m.observeCall(startTime, false)
		return nil, fmt.Errorf("model stream failed: status %d", resp.StatusCode())
	}

	out := make(chan biz.ChatChunk)
	go func() {
		defer close(out)
		defer resp.RawBody().Close()

		ok := true
		scanner := bufio.NewScanner(resp.RawBody())
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				break
			}

			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
				m.log.Warnf("Skipping malformed stream chunk: %v", err)
				continue
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case out <- biz.ChatChunk{Content: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				ok = false
				m.observeCall(startTime, false)
				return
			}
		}
		if err := scanner.Err(); err != nil {
			ok = false
			out <- biz.ChatChunk{Err: fmt.Errorf("read model stream: %w", err)}
		}
		m.observeCall(startTime, ok)
	}()

	return out, nil
}

func (m *modelClient) observeCall(startTime time.Time, ok bool) {
	if m.metrics == nil {
		return
	}
	m.metrics.ModelCallDuration.Observe(time.Since(startTime).Seconds())
	status := constants.ResultSuccess
	if !ok {
		status = constants.ResultFailed
	}
	m.metrics.ModelCallTotal.WithLabelValues(status).Inc()
}
