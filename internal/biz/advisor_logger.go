package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
)

// LoggerAdvisor 日志拦截器，只输出单次用户提示词和 AI 回复的文本
type LoggerAdvisor struct {
	order int
	log   *log.Helper
}

// NewLoggerAdvisor 创建日志 Advisor，排在链的最内侧
func NewLoggerAdvisor(logger log.Logger) *LoggerAdvisor {
	return &LoggerAdvisor{
		order: 100,
		log:   log.NewHelper(logger),
	}
}

// Name 返回 Advisor 名称
func (a *LoggerAdvisor) Name() string {
	return "LoggerAdvisor"
}

// Order 返回执行顺序
func (a *LoggerAdvisor) Order() int {
	return a.order
}

// AdviseCall 同步调用路径
func (a *LoggerAdvisor) AdviseCall(ctx context.Context, req *ChatRequest, chain *CallAdvisorChain) (*ChatResponse, error) {
	a.log.WithContext(ctx).Infof("AI Request: %s", req.UserText)

	resp, err := chain.NextCall(ctx, req)
	if err != nil {
		return nil, err
	}

	a.log.WithContext(ctx).Infof("AI Response: %s", resp.Text)
	return resp, nil
}

// AdviseStream 流式调用路径：响应日志在流聚合完成后输出一次
func (a *LoggerAdvisor) AdviseStream(ctx context.Context, req *ChatRequest, chain *StreamAdvisorChain) (<-chan ChatChunk, error) {
	a.log.WithContext(ctx).Infof("AI Request: %s", req.UserText)

	stream, err := chain.NextStream(ctx, req)
	if err != nil {
		return nil, err
	}

	return AggregateStream(stream, func(resp *ChatResponse, streamErr error) {
		if streamErr != nil {
			a.log.Warnf("AI Stream failed: %v", streamErr)
			return
		}
		a.log.Infof("AI Response: %s", resp.Text)
	}), nil
}
