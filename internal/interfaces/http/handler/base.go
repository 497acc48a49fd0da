package handler

import (
	"strings"

	"novel-copilot-api/internal/config"
)

// resolveProvider 解析续写使用的 LLM 提供商，未指定时回退到默认提供商
func resolveProvider(cfg *config.Config) (string, config.ProviderConfig) {
	name := strings.TrimSpace(cfg.AI.Provider)
	if name == "" {
		name = strings.TrimSpace(cfg.LLM.DefaultProvider)
	}
	return name, cfg.LLM.Providers[name]
}
