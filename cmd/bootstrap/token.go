package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"novel-copilot-api/pkg/utils"
)

var tokenTTL time.Duration

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token [email]",
	Short: "为已有用户签发访问令牌",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, dataLayer, cleanup, err := openDataLayer(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		email := strings.ToLower(strings.TrimSpace(args[0]))
		user, err := dataLayer.UserRepo.GetByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("user %s not found", email)
		}

		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Security.JWT.Expiration
		}
		manager := utils.NewJWTManager(cfg.Security.JWT.Secret, cfg.Security.JWT.Issuer)
		token, err := manager.GenerateToken(user.ID, user.Email, string(user.Role), utils.TokenTypeAccess, ttl)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issueTokenCmd)
	issueTokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "令牌有效期，默认取 security.jwt.expiration")
}
