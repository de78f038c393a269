package biz

import (
	"context"
	"sync"
	"time"
)

// 测试用内存版依赖实现

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newFakeUserRepo(users ...*User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*User)}
	for _, u := range users {
		repo.users[u.UserID] = u
	}
	return repo
}

func (r *fakeUserRepo) GetByUserID(_ context.Context, userID string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) UpdateEnabled(_ context.Context, userID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.Enabled = enabled
	}
	return nil
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, userID string, role Role, expireAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.Role = role
		if role == RoleVip {
			u.VipExpireAt = expireAt
		}
	}
	return nil
}

type fakeQuotaRepo struct {
	mu         sync.Mutex
	usage      map[string]int
	convCounts map[string]int
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{
		usage:      make(map[string]int),
		convCounts: make(map[string]int),
	}
}

func (r *fakeQuotaRepo) GetTodayUsage(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usage[userID], nil
}

func (r *fakeQuotaRepo) IncrementUsage(_ context.Context, userID string, _ int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage[userID]++
	return int64(r.usage[userID]), nil
}

func (r *fakeQuotaRepo) ResetToday(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.usage, userID)
	return nil
}

func (r *fakeQuotaRepo) PurgeBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeQuotaRepo) ApplyUsageEvents(_ context.Context, events []*UsageEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range events {
		r.usage[event.UserID] += event.Count
	}
	return nil
}

func (r *fakeQuotaRepo) GetConversationMessageCount(_ context.Context, conversationID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.convCounts[conversationID], nil
}

func (r *fakeQuotaRepo) IncrementConversationMessageCount(_ context.Context, conversationID string, n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.convCounts[conversationID] += n
	return nil
}

type fakeMemoryRepo struct {
	mu       sync.Mutex
	messages map[string][]*Message
}

func newFakeMemoryRepo() *fakeMemoryRepo {
	return &fakeMemoryRepo{messages: make(map[string][]*Message)}
}

func (r *fakeMemoryRepo) Append(_ context.Context, conversationID string, messages []*Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[conversationID] = append(r.messages[conversationID], messages...)
	return nil
}

func (r *fakeMemoryRepo) GetAll(_ context.Context, conversationID string) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Message(nil), r.messages[conversationID]...), nil
}

func (r *fakeMemoryRepo) GetLast(ctx context.Context, conversationID string, n int) ([]*Message, error) {
	all, _ := r.GetAll(ctx, conversationID)
	if n <= 0 || n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}

func (r *fakeMemoryRepo) Clear(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, conversationID)
	return nil
}

func (r *fakeMemoryRepo) count(conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages[conversationID])
}

type fakeModel struct {
	mu        sync.Mutex
	calls     int
	reply     string
	callErr   error
	chunks    []string
	streamErr error
}

func (m *fakeModel) Call(_ context.Context, _ *ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.callErr != nil {
		return nil, m.callErr
	}
	return &ChatResponse{Text: m.reply}, nil
}

func (m *fakeModel) Stream(_ context.Context, _ *ChatRequest) (<-chan ChatChunk, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	out := make(chan ChatChunk)
	go func() {
		defer close(out)
		for _, chunk := range m.chunks {
			out <- ChatChunk{Content: chunk}
		}
		if m.streamErr != nil {
			out <- ChatChunk{Err: m.streamErr}
		}
	}()
	return out, nil
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
