package biz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingAdvisor 记录前置/后置执行顺序
type recordingAdvisor struct {
	name  string
	order int
	trace *[]string
}

func (a *recordingAdvisor) Name() string { return a.name }
func (a *recordingAdvisor) Order() int   { return a.order }

func (a *recordingAdvisor) AdviseCall(ctx context.Context, req *ChatRequest, chain *CallAdvisorChain) (*ChatResponse, error) {
	*a.trace = append(*a.trace, "pre:"+a.name)
	resp, err := chain.NextCall(ctx, req)
	*a.trace = append(*a.trace, "post:"+a.name)
	return resp, err
}

// blockingAdvisor 不调用 NextCall，直接短路
type blockingAdvisor struct {
	err error
}

func (a *blockingAdvisor) Name() string { return "blocking" }
func (a *blockingAdvisor) Order() int   { return 0 }

func (a *blockingAdvisor) AdviseCall(_ context.Context, _ *ChatRequest, _ *CallAdvisorChain) (*ChatResponse, error) {
	return nil, a.err
}

func TestCallAdvisorChainOrder(t *testing.T) {
	var trace []string
	model := &fakeModel{reply: "ok"}
	// 乱序注册，链按 Order 升序执行
	chain := NewCallAdvisorChain(model,
		&recordingAdvisor{name: "logger", order: 100, trace: &trace},
		&recordingAdvisor{name: "auth", order: 0, trace: &trace},
		&recordingAdvisor{name: "memory", order: 10, trace: &trace},
	)

	resp, err := chain.NextCall(context.Background(), &ChatRequest{UserText: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 1, model.callCount())

	// 洋葱模型：前置按 Order 升序，后置逆序
	assert.Equal(t, []string{
		"pre:auth", "pre:memory", "pre:logger",
		"post:logger", "post:memory", "post:auth",
	}, trace)
}

func TestCallAdvisorChainShortCircuit(t *testing.T) {
	var trace []string
	model := &fakeModel{reply: "ok"}
	wantErr := errors.New("denied")
	chain := NewCallAdvisorChain(model,
		&blockingAdvisor{err: wantErr},
		&recordingAdvisor{name: "memory", order: 10, trace: &trace},
	)

	_, err := chain.NextCall(context.Background(), &ChatRequest{})
	require.ErrorIs(t, err, wantErr)
	// 短路后既不触达模型，也不执行后续 Advisor
	assert.Equal(t, 0, model.callCount())
	assert.Empty(t, trace)
}

func TestStreamAdvisorChainSkipsNonStreamAdvisors(t *testing.T) {
	var trace []string
	model := &fakeModel{chunks: []string{"a", "b"}}
	// recordingAdvisor 未实现 StreamAdvisor，流式路径应跳过
	chain := NewStreamAdvisorChain(model,
		&recordingAdvisor{name: "call-only", order: 0, trace: &trace},
	)

	stream, err := chain.NextStream(context.Background(), &ChatRequest{})
	require.NoError(t, err)

	var got string
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		got += chunk.Content
	}
	assert.Equal(t, "ab", got)
	assert.Empty(t, trace)
}

func TestAggregateStream(t *testing.T) {
	in := make(chan ChatChunk, 3)
	in <- ChatChunk{Content: "he"}
	in <- ChatChunk{Content: "llo"}
	close(in)

	var aggregated *ChatResponse
	var aggErr error
	out := AggregateStream(in, func(resp *ChatResponse, err error) {
		aggregated = resp
		aggErr = err
	})

	var forwarded string
	for chunk := range out {
		forwarded += chunk.Content
	}

	assert.Equal(t, "hello", forwarded)
	require.NotNil(t, aggregated)
	assert.Equal(t, "hello", aggregated.Text)
	assert.NoError(t, aggErr)
}

func TestAggregateStreamPropagatesError(t *testing.T) {
	wantErr := errors.New("upstream broke")
	in := make(chan ChatChunk, 2)
	in <- ChatChunk{Content: "partial"}
	in <- ChatChunk{Err: wantErr}
	close(in)

	var aggErr error
	out := AggregateStream(in, func(_ *ChatResponse, err error) {
		aggErr = err
	})
	for range out {
	}

	assert.ErrorIs(t, aggErr, wantErr)
}
