package service

import (
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"time"

	"chat-service/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"
)

// ChatService 对话 HTTP 服务
type ChatService struct {
	chat *biz.ChatUseCase
	log  *log.Helper
}

// NewChatService 创建对话服务
func NewChatService(chat *biz.ChatUseCase, logger log.Logger) *ChatService {
	return &ChatService{
		chat: chat,
		log:  log.NewHelper(logger),
	}
}

// ChatRequest 对话请求
type ChatRequest struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	SkipAuthCheck  bool   `json:"skip_auth_check"`
}

// ChatReply 对话响应
type ChatReply struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// MessageItem 会话历史中的一条消息
type MessageItem struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// GetMessagesReply 会话历史响应
type GetMessagesReply struct {
	ConversationID string         `json:"conversation_id"`
	Messages       []*MessageItem `json:"messages"`
}

// ClearMessagesReply 清空会话响应
type ClearMessagesReply struct {
	ConversationID string `json:"conversation_id"`
}

// streamEvent SSE 数据帧
type streamEvent struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleChat 同步对话
// POST /v1/chat
func (s *ChatService) HandleChat(ctx http.Context) error {
	var req ChatRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	// 未携带会话ID时开启新会话
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	reply, err := s.chat.Chat(ctx, req.UserID, conversationID, req.Message, req.SkipAuthCheck)
	if err != nil {
		return err
	}

	return ctx.Result(200, &ChatReply{
		ConversationID: conversationID,
		Reply:          reply,
	})
}

// HandleChatStream 流式对话，以 SSE 推送增量片段
// POST /v1/chat/stream
func (s *ChatService) HandleChatStream(ctx http.Context) error {
	var req ChatRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	stream, err := s.chat.ChatStream(ctx, req.UserID, conversationID, req.Message, req.SkipAuthCheck)
	if err != nil {
		return err
	}

	w := ctx.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Conversation-Id", conversationID)
	w.WriteHeader(nethttp.StatusOK)

	flusher, ok := w.(nethttp.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported by response writer")
	}
	flusher.Flush()

	for chunk := range stream {
		event := &streamEvent{Content: chunk.Content}
		if chunk.Err != nil {
			event = &streamEvent{Error: chunk.Err.Error()}
		}
		data, err := json.Marshal(event)
		if err != nil {
			s.log.Errorf("Failed to marshal stream event: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			s.log.Warnf("Client disconnected from stream %s: %v", conversationID, err)
			// 继续排空，保证聚合回调执行
			for range stream {
			}
			return nil
		}
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
	return nil
}

// HandleGetMessages 查询会话历史
// GET /v1/conversations/{id}/messages
func (s *ChatService) HandleGetMessages(ctx http.Context) error {
	conversationID := ctx.Vars().Get("id")

	messages, err := s.chat.History(ctx, conversationID)
	if err != nil {
		return err
	}

	items := make([]*MessageItem, 0, len(messages))
	for _, msg := range messages {
		items = append(items, &MessageItem{
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	return ctx.Result(200, &GetMessagesReply{
		ConversationID: conversationID,
		Messages:       items,
	})
}

// HandleClearMessages 清空会话记忆
// DELETE /v1/conversations/{id}/messages
func (s *ChatService) HandleClearMessages(ctx http.Context) error {
	conversationID := ctx.Vars().Get("id")

	if err := s.chat.ClearMemory(ctx, conversationID); err != nil {
		return err
	}

	return ctx.Result(200, &ClearMessagesReply{ConversationID: conversationID})
}
