package biz

import (
	"context"
	"time"

	"chat-service/internal/constants"
	"chat-service/internal/metrics"
	"chat-service/internal/prompt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
)

// 系统提示词模板变量
var systemPromptVars = map[string]string{
	"experience_years": "10",
	"specialty":        "情绪疏导、人际关系调解、压力管理等领域",
	"crisis_hotline":   "全国 24 小时心理危机干预热线 400-161-9995",
}

// ChatUseCase 对话编排逻辑
//
// 每次调用：构建请求（系统提示词 + 记忆窗口 + 用户消息）→ 获取会话锁
// → 走 Advisor 链包裹模型调用 → 记忆 Advisor 在成功后落库本轮对话。
// 链上任何失败原样上抛，不落任何状态。
type ChatUseCase struct {
	model    ChatModel
	memory   ChatMemoryRepo
	advisors []CallAdvisor
	conf     *ChatConfig
	sync     *redsync.Redsync
	log      *log.Helper
	metrics  *metrics.ChatMetrics

	systemPrompt string
}

// NewChatUseCase 创建对话 UseCase
func NewChatUseCase(
	model ChatModel,
	memory ChatMemoryRepo,
	auth *AuthorizationAdvisor,
	chatMemory *ChatMemoryAdvisor,
	chatLogger *LoggerAdvisor,
	conf *ChatConfig,
	sync *redsync.Redsync,
	logger log.Logger,
) *ChatUseCase {
	return &ChatUseCase{
		model:        model,
		memory:       memory,
		advisors:     []CallAdvisor{auth, chatMemory, chatLogger},
		conf:         conf,
		sync:         sync,
		log:          log.NewHelper(logger),
		metrics:      metrics.GetMetrics(),
		systemPrompt: prompt.RenderSystem(systemPromptVars),
	}
}

// Chat AI 基础多轮对话
func (uc *ChatUseCase) Chat(ctx context.Context, userID, conversationID, text string, skipAuth bool) (string, error) {
	startTime := time.Now()

	unlock, err := uc.lockConversation(conversationID)
	if err != nil {
		return "", err
	}
	defer unlock()

	req := uc.buildRequest(userID, conversationID, text, skipAuth)
	chain := NewCallAdvisorChain(uc.model, uc.advisors...)
	resp, err := chain.NextCall(ctx, req)

	if uc.metrics != nil {
		uc.metrics.ChatRequestDuration.WithLabelValues(constants.ChatModeCall).Observe(time.Since(startTime).Seconds())
		result := constants.ResultSuccess
		if err != nil {
			result = constants.ResultFailed
		}
		uc.metrics.ChatRequestTotal.WithLabelValues(constants.ChatModeCall, result).Inc()
	}
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// ChatStream AI 流式多轮对话
// 横切副作用（计数、落库、日志）推迟到全部片段接收完成后执行
func (uc *ChatUseCase) ChatStream(ctx context.Context, userID, conversationID, text string, skipAuth bool) (<-chan ChatChunk, error) {
	startTime := time.Now()

	unlock, err := uc.lockConversation(conversationID)
	if err != nil {
		return nil, err
	}

	req := uc.buildRequest(userID, conversationID, text, skipAuth)
	chain := NewStreamAdvisorChain(uc.model, uc.advisors...)
	stream, err := chain.NextStream(ctx, req)
	if err != nil {
		unlock()
		if uc.metrics != nil {
			uc.metrics.ChatRequestTotal.WithLabelValues(constants.ChatModeStream, constants.ResultFailed).Inc()
		}
		return nil, err
	}

	return AggregateStream(stream, func(_ *ChatResponse, streamErr error) {
		unlock()
		if uc.metrics != nil {
			uc.metrics.ChatRequestDuration.WithLabelValues(constants.ChatModeStream).Observe(time.Since(startTime).Seconds())
			result := constants.ResultSuccess
			if streamErr != nil {
				result = constants.ResultFailed
			}
			uc.metrics.ChatRequestTotal.WithLabelValues(constants.ChatModeStream, result).Inc()
		}
	}), nil
}

// History 返回会话全部消息
func (uc *ChatUseCase) History(ctx context.Context, conversationID string) ([]*Message, error) {
	return uc.memory.GetAll(ctx, conversationID)
}

// ClearMemory 清空会话记忆
func (uc *ChatUseCase) ClearMemory(ctx context.Context, conversationID string) error {
	return uc.memory.Clear(ctx, conversationID)
}

func (uc *ChatUseCase) buildRequest(userID, conversationID, text string, skipAuth bool) *ChatRequest {
	reqCtx := map[string]any{
		CtxKeyUserID:        userID,
		CtxKeySkipAuthCheck: skipAuth,
	}
	if conversationID != "" {
		reqCtx[CtxKeyConversationID] = conversationID
	}
	return &ChatRequest{
		SystemText: uc.systemPrompt,
		UserText:   text,
		Context:    reqCtx,
	}
}

// lockConversation 获取会话级互斥锁，串行化同一会话的并发调用，
// 保证会话内消息追加顺序与调用顺序一致
func (uc *ChatUseCase) lockConversation(conversationID string) (func(), error) {
	if uc.sync == nil || conversationID == "" {
		return func() {}, nil
	}

	lockStartTime := time.Now()
	mutex := uc.sync.NewMutex(
		constants.RedisKeyConversationLock+conversationID,
		redsync.WithExpiry(2*time.Minute),
	)
	if err := mutex.Lock(); err != nil {
		uc.log.Errorf("Failed to acquire lock for conversation %s: %v", conversationID, err)
		if uc.metrics != nil {
			uc.metrics.LockAcquireTotal.WithLabelValues(constants.ResultFailed).Inc()
			uc.metrics.LockAcquireDuration.Observe(time.Since(lockStartTime).Seconds())
		}
		return nil, err
	}
	if uc.metrics != nil {
		uc.metrics.LockAcquireTotal.WithLabelValues(constants.ResultSuccess).Inc()
		uc.metrics.LockAcquireDuration.Observe(time.Since(lockStartTime).Seconds())
	}

	return func() {
		if ok, err := mutex.Unlock(); !ok || err != nil {
			uc.log.Warnf("Failed to unlock conversation %s: %v", conversationID, err)
		}
	}, nil
}
