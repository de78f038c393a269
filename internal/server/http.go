package server

import (
	"chat-service/internal/conf"
	"chat-service/internal/service"

	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPServer 创建 HTTP 服务器
func NewHTTPServer(c *conf.Bootstrap, chatService *service.ChatService, adminService *service.AdminService) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
	}
	if c.Server != nil && c.Server.Http != nil {
		if c.Server.Http.Network != "" {
			opts = append(opts, http.Network(c.Server.Http.Network))
		}
		if c.Server.Http.Addr != "" {
			opts = append(opts, http.Address(c.Server.Http.Addr))
		}
		if c.Server.Http.Timeout.AsDuration() > 0 {
			opts = append(opts, http.Timeout(c.Server.Http.Timeout.AsDuration()))
		}
	}
	srv := http.NewServer(opts...)

	srv.Handle("/metrics", promhttp.Handler())

	route := srv.Route("/v1")
	route.POST("/chat", chatService.HandleChat)
	route.POST("/chat/stream", chatService.HandleChatStream)
	route.GET("/conversations/{id}/messages", chatService.HandleGetMessages)
	route.DELETE("/conversations/{id}/messages", chatService.HandleClearMessages)

	route.GET("/admin/users/{id}/usage", adminService.HandleGetUsage)
	route.POST("/admin/users/{id}/enable", adminService.HandleEnableUser)
	route.POST("/admin/users/{id}/disable", adminService.HandleDisableUser)
	route.POST("/admin/users/{id}/vip", adminService.HandleUpgradeVip)
	route.POST("/admin/users/{id}/quota/reset", adminService.HandleResetQuota)

	return srv
}
