package biz

import (
	"context"
	"sort"
	"strings"
)

// 请求上下文 key 常量，供各 Advisor 读写
const (
	// CtxKeyUserID 用户ID参数名
	CtxKeyUserID = "userId"
	// CtxKeyConversationID 会话ID参数名
	CtxKeyConversationID = "conversationId"
	// CtxKeySkipAuthCheck 跳过权限检查参数（用于管理员等特殊场景）
	CtxKeySkipAuthCheck = "skipAuthCheck"
)

// ChatRequest 一次对话调用的出站请求
// Context 为本次调用范围内的共享状态，所有 Advisor 可读写
type ChatRequest struct {
	SystemText string
	History    []*Message
	UserText   string
	Context    map[string]any
}

// UserID 从请求上下文取用户ID
func (r *ChatRequest) UserID() string {
	s, _ := r.Context[CtxKeyUserID].(string)
	return s
}

// ConversationID 从请求上下文取会话ID
func (r *ChatRequest) ConversationID() string {
	s, _ := r.Context[CtxKeyConversationID].(string)
	return s
}

// SkipAuthCheck 从请求上下文取跳过权限检查标记
func (r *ChatRequest) SkipAuthCheck() bool {
	b, _ := r.Context[CtxKeySkipAuthCheck].(bool)
	return b
}

// ChatResponse 一次对话调用的完整响应
type ChatResponse struct {
	Text string
}

// ChatChunk 流式响应中的一个片段
// Err 非空表示流以该错误终止
type ChatChunk struct {
	Content string
	Err     error
}

// ChatModel 模型服务客户端接口（外部协作方）
type ChatModel interface {
	Call(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	Stream(ctx context.Context, req *ChatRequest) (<-chan ChatChunk, error)
}

// CallAdvisor 对话调用拦截器
// Order 数字越小越先执行，其"后置"逻辑最后执行（洋葱模型）
type CallAdvisor interface {
	Name() string
	Order() int
	AdviseCall(ctx context.Context, req *ChatRequest, chain *CallAdvisorChain) (*ChatResponse, error)
}

// StreamAdvisor 流式对话拦截器
// 横切逻辑将流视为单个逻辑请求/响应对：后置副作用在聚合完成后执行一次
type StreamAdvisor interface {
	AdviseStream(ctx context.Context, req *ChatRequest, chain *StreamAdvisorChain) (<-chan ChatChunk, error)
}

// CallAdvisorChain 按显式优先级排序的拦截器链
// 链本身无状态，每次调用新建；某个 Advisor 不调用 NextCall 即短路，
// 其后的 Advisor 不会执行前置逻辑，其前的 Advisor 也看不到模型响应
type CallAdvisorChain struct {
	advisors []CallAdvisor
	model    ChatModel
	next     int
}

// NewCallAdvisorChain 创建调用链，按 Order 升序排列
func NewCallAdvisorChain(model ChatModel, advisors ...CallAdvisor) *CallAdvisorChain {
	return &CallAdvisorChain{
		advisors: sortAdvisors(advisors),
		model:    model,
	}
}

// NextCall 执行链中的下一个 Advisor；链尾调用模型
func (c *CallAdvisorChain) NextCall(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if c.next < len(c.advisors) {
		advisor := c.advisors[c.next]
		c.next++
		return advisor.AdviseCall(ctx, req, c)
	}
	return c.model.Call(ctx, req)
}

// StreamAdvisorChain 流式调用链
type StreamAdvisorChain struct {
	advisors []CallAdvisor
	model    ChatModel
	next     int
}

// NewStreamAdvisorChain 创建流式调用链，按 Order 升序排列
func NewStreamAdvisorChain(model ChatModel, advisors ...CallAdvisor) *StreamAdvisorChain {
	return &StreamAdvisorChain{
		advisors: sortAdvisors(advisors),
		model:    model,
	}
}

// NextStream 执行链中的下一个 StreamAdvisor；未实现流式的 Advisor 被跳过
func (c *StreamAdvisorChain) NextStream(ctx context.Context, req *ChatRequest) (<-chan ChatChunk, error) {
	for c.next < len(c.advisors) {
		advisor := c.advisors[c.next]
		c.next++
		if sa, ok := advisor.(StreamAdvisor); ok {
			return sa.AdviseStream(ctx, req, c)
		}
	}
	return c.model.Stream(ctx, req)
}

// AggregateStream 转发流式片段，并在流结束后以聚合出的完整响应
// 执行一次 onComplete；对应"按聚合后的首尾片段执行横切逻辑"的语义
func AggregateStream(in <-chan ChatChunk, onComplete func(resp *ChatResponse, err error)) <-chan ChatChunk {
	out := make(chan ChatChunk)
	go func() {
		defer close(out)
		var builder strings.Builder
		var streamErr error
		for chunk := range in {
			if chunk.Err != nil {
				streamErr = chunk.Err
			} else {
				builder.WriteString(chunk.Content)
			}
			out <- chunk
		}
		onComplete(&ChatResponse{Text: builder.String()}, streamErr)
	}()
	return out
}

func sortAdvisors(advisors []CallAdvisor) []CallAdvisor {
	sorted := make([]CallAdvisor, len(advisors))
	copy(sorted, advisors)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return sorted
}
