package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"novel-copilot-api/internal/domain/entity"
)

var (
	userName     string
	userEmail    string
	userPassword string
	userRole     string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "创建用户（默认管理员）",
	Long: `创建用户账号，邮箱已存在时直接跳过。

未通过参数指定时读取环境变量：
  BOOTSTRAP_ADMIN_EMAIL
  BOOTSTRAP_ADMIN_PASSWORD`,
	Args: cobra.NoArgs,
	RunE: runCreateUser,
}

func init() {
	rootCmd.AddCommand(createUserCmd)
	createUserCmd.Flags().StringVar(&userName, "username", "admin", "用户名")
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "邮箱")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "密码")
	createUserCmd.Flags().StringVar(&userRole, "role", string(entity.UserRoleAdmin), "角色：admin 或 member")
}

func runCreateUser(cmd *cobra.Command, _ []string) error {
	email := firstNonEmpty(userEmail, os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))
	password := firstNonEmpty(userPassword, os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"))
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}
	email = strings.ToLower(strings.TrimSpace(email))

	role := entity.UserRole(userRole)
	if role != entity.UserRoleAdmin && role != entity.UserRoleMember {
		return fmt.Errorf("unknown role %q", userRole)
	}

	ctx := cmd.Context()
	_, dataLayer, cleanup, err := openDataLayer(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	exists, err := dataLayer.UserRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check user existence: %w", err)
	}
	if exists {
		fmt.Printf("User %s already exists.\n", email)
		return nil
	}

	user := entity.NewUser(userName, email)
	user.Role = role
	if err := user.SetPassword(password); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := dataLayer.UserRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Printf("User created with ID: %s\n", user.ID)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
