// Package main 运维引导命令
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/wire"
)

var rootCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "novel-copilot 运维引导工具",
	Long: `bootstrap 负责部署前后的一次性操作：

  migrate       按实体定义同步 PostgreSQL 表结构
  create-user   创建用户，默认管理员（已存在则跳过）
  issue-token   为已有用户签发访问令牌，便于联调`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDataLayer 加载配置并初始化仅含 PostgreSQL 的数据层
func openDataLayer(ctx context.Context) (*config.Config, *wire.PostgresOnlyDataLayer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize data layer: %w", err)
	}
	return cfg, dataLayer, cleanup, nil
}
