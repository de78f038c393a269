package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// AuthorizationAdvisor 权限校验拦截器
//
// 必须排在记忆注入和模型调用之前：策略违规要在零模型调用、
// 零记忆写入的前提下短路整个调用链
type AuthorizationAdvisor struct {
	perm  *PermissionUseCase
	order int
	log   *log.Helper
}

// NewAuthorizationAdvisor 创建权限校验 Advisor，Order 为 0 保证最先执行
func NewAuthorizationAdvisor(perm *PermissionUseCase, logger log.Logger) *AuthorizationAdvisor {
	return &AuthorizationAdvisor{
		perm:  perm,
		order: 0,
		log:   log.NewHelper(logger),
	}
}

// Name 返回 Advisor 名称
func (a *AuthorizationAdvisor) Name() string {
	return "AuthorizationAdvisor"
}

// Order 返回执行顺序
func (a *AuthorizationAdvisor) Order() int {
	return a.order
}

// AdviseCall 同步调用路径
func (a *AuthorizationAdvisor) AdviseCall(ctx context.Context, req *ChatRequest, chain *CallAdvisorChain) (*ChatResponse, error) {
	skip := req.SkipAuthCheck()
	conversationID := req.ConversationID()

	if err := a.perm.Authorize(ctx, req.UserID(), conversationID, skip); err != nil {
		return nil, err
	}

	resp, err := chain.NextCall(ctx, req)
	if err != nil {
		return nil, err
	}

	// 下游成功后才记会话消息数：用户消息 + AI响应消息 = 2条
	if !skip {
		a.perm.BumpConversation(ctx, conversationID)
	}
	return resp, nil
}

// AdviseStream 流式调用路径：前置校验不变，计数推迟到流聚合完成
func (a *AuthorizationAdvisor) AdviseStream(ctx context.Context, req *ChatRequest, chain *StreamAdvisorChain) (<-chan ChatChunk, error) {
	skip := req.SkipAuthCheck()
	conversationID := req.ConversationID()

	if err := a.perm.Authorize(ctx, req.UserID(), conversationID, skip); err != nil {
		return nil, err
	}

	stream, err := chain.NextStream(ctx, req)
	if err != nil {
		return nil, err
	}

	return AggregateStream(stream, func(_ *ChatResponse, streamErr error) {
		if streamErr != nil || skip {
			return
		}
		// 请求上下文可能已结束，计数用独立的短超时上下文
		bumpCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		a.perm.BumpConversation(bumpCtx, conversationID)
	}), nil
}
