package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// ChatMemoryAdvisor 会话记忆拦截器
//
// 前置：取会话最近 window 条消息注入请求
// 后置：下游成功后把本轮（用户消息 + 助手回复）追加到会话记忆；
// 会话持久化失败向上传播——丢一轮对话会破坏记忆完整性
type ChatMemoryAdvisor struct {
	memory ChatMemoryRepo
	window int
	order  int
	log    *log.Helper
}

// NewChatMemoryAdvisor 创建会话记忆 Advisor，排在权限校验之后
func NewChatMemoryAdvisor(memory ChatMemoryRepo, conf *ChatConfig, logger log.Logger) *ChatMemoryAdvisor {
	return &ChatMemoryAdvisor{
		memory: memory,
		window: conf.MemoryWindow,
		order:  10,
		log:    log.NewHelper(logger),
	}
}

// Name 返回 Advisor 名称
func (a *ChatMemoryAdvisor) Name() string {
	return "ChatMemoryAdvisor"
}

// Order 返回执行顺序
func (a *ChatMemoryAdvisor) Order() int {
	return a.order
}

// AdviseCall 同步调用路径
func (a *ChatMemoryAdvisor) AdviseCall(ctx context.Context, req *ChatRequest, chain *CallAdvisorChain) (*ChatResponse, error) {
	conversationID := req.ConversationID()
	if conversationID != "" {
		history, err := a.memory.GetLast(ctx, conversationID, a.window)
		if err != nil {
			return nil, fmt.Errorf("load conversation memory: %w", err)
		}
		req.History = history
	}

	resp, err := chain.NextCall(ctx, req)
	if err != nil {
		return nil, err
	}

	if conversationID != "" {
		if err := a.memory.Append(ctx, conversationID, a.turn(conversationID, req.UserText, resp.Text)); err != nil {
			return nil, fmt.Errorf("persist conversation turn: %w", err)
		}
	}
	return resp, nil
}

// AdviseStream 流式调用路径：本轮落库推迟到流聚合完成
func (a *ChatMemoryAdvisor) AdviseStream(ctx context.Context, req *ChatRequest, chain *StreamAdvisorChain) (<-chan ChatChunk, error) {
	conversationID := req.ConversationID()
	if conversationID != "" {
		history, err := a.memory.GetLast(ctx, conversationID, a.window)
		if err != nil {
			return nil, fmt.Errorf("load conversation memory: %w", err)
		}
		req.History = history
	}

	stream, err := chain.NextStream(ctx, req)
	if err != nil {
		return nil, err
	}

	userText := req.UserText
	return AggregateStream(stream, func(resp *ChatResponse, streamErr error) {
		if streamErr != nil || conversationID == "" {
			return
		}
		appendCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.memory.Append(appendCtx, conversationID, a.turn(conversationID, userText, resp.Text)); err != nil {
			// 流已经发给调用方，无法再让请求失败，只能记错误日志
			a.log.Errorf("Failed to persist conversation turn for %s: %v", conversationID, err)
		}
	}), nil
}

func (a *ChatMemoryAdvisor) turn(conversationID, userText, assistantText string) []*Message {
	now := time.Now()
	return []*Message{
		{ConversationID: conversationID, Role: MessageRoleUser, Content: userText, CreatedAt: now},
		{ConversationID: conversationID, Role: MessageRoleAssistant, Content: assistantText, CreatedAt: now},
	}
}
