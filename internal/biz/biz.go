package biz

import "github.com/google/wire"

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewChatConfig,
	NewUserUseCase,
	NewQuotaUseCase,
	NewPermissionUseCase,
	NewAuthorizationAdvisor,
	NewChatMemoryAdvisor,
	NewLoggerAdvisor,
	NewChatUseCase,
)
