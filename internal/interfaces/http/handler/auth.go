// Package handler 提供 HTTP 请求处理器
package handler

import (
	"net/http"
	"strings"
	"time"

	"novel-copilot-api/internal/config"
	"novel-copilot-api/internal/domain/entity"
	"novel-copilot-api/internal/domain/repository"
	"novel-copilot-api/internal/interfaces/http/dto"
	"novel-copilot-api/pkg/errors"
	"novel-copilot-api/pkg/logger"
	"novel-copilot-api/pkg/utils"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

// AuthHandler 认证处理器
type AuthHandler struct {
	jwtManager *utils.JWTManager
	userRepo   repository.UserRepository
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, userRepo repository.UserRepository) *AuthHandler {
	jwtCfg := cfg.Security.JWT
	h := &AuthHandler{
		jwtManager: utils.NewJWTManager(jwtCfg.Secret, jwtCfg.Issuer),
		userRepo:   userRepo,
		accessTTL:  jwtCfg.Expiration,
		refreshTTL: jwtCfg.RefreshExpiration,
	}
	if h.accessTTL <= 0 {
		h.accessTTL = 15 * time.Minute
	}
	if h.refreshTTL <= 0 {
		h.refreshTTL = 7 * 24 * time.Hour
	}
	return h
}

// Register 注册
// @Summary 用户注册
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "注册信息"
// @Success 201 {object} dto.Response[dto.AuthResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := h.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		dto.Fail(c, errors.ErrDatabase.WithDetail("check email").WithError(err))
		return
	}
	if exists {
		dto.Fail(c, errors.ErrConflict.WithDetail("email already registered"))
		return
	}

	user := entity.NewUser(strings.TrimSpace(req.Username), email)
	user.FullName = req.FullName
	if err := user.SetPassword(req.Password); err != nil {
		logger.Error(ctx, "failed to hash password", err)
		dto.InternalError(c, "registration failed")
		return
	}
	if err := h.userRepo.Create(ctx, user); err != nil {
		if !errors.IsAppError(err) {
			err = errors.ErrDatabase.WithDetail("create user").WithError(err)
		}
		dto.Fail(c, err)
		return
	}
	logger.Info(ctx, "user registered", "user_id", user.ID)

	h.respondTokens(c, http.StatusCreated, user)
}

// Login 登录
// @Summary 用户登录
// @Description 验证邮箱密码并返回访问令牌与刷新令牌
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.Response[dto.AuthResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	user, err := h.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		dto.Fail(c, errors.ErrDatabase.WithDetail("get user").WithError(err))
		return
	}
	if user == nil || !user.IsActive || !user.CheckPassword(req.Password) {
		dto.Unauthorized(c, "invalid email or password")
		return
	}

	h.respondTokens(c, http.StatusOK, user)
}

// RefreshToken 用刷新令牌换取新的令牌对，刷新令牌可来自请求体或 Cookie
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RefreshRequest
	token := ""
	if err := c.ShouldBindJSON(&req); err == nil {
		token = req.RefreshToken
	} else if cookie, err := c.Cookie(refreshCookie); err == nil {
		token = cookie
	}
	if token == "" {
		dto.Unauthorized(c, "missing refresh token")
		return
	}

	claims, err := h.jwtManager.ParseToken(token)
	if err != nil || claims.Type != utils.TokenTypeRefresh {
		dto.Unauthorized(c, "invalid refresh token")
		return
	}

	user, err := h.userRepo.GetByID(ctx, claims.UserID())
	if err != nil {
		dto.Fail(c, errors.ErrDatabase.WithDetail("get user").WithError(err))
		return
	}
	if user == nil || !user.IsActive {
		dto.Unauthorized(c, "invalid refresh token")
		return
	}

	h.respondTokens(c, http.StatusOK, user)
}

// Logout 登出
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(refreshCookie, "", -1, "/v1/auth/refresh", "", false, true)
	dto.Success(c, gin.H{"message": "logged out"})
}

func (h *AuthHandler) respondTokens(c *gin.Context, status int, user *entity.User) {
	tokens, err := h.jwtManager.GenerateTokenPair(user.ID, user.Email, string(user.Role), h.accessTTL, h.refreshTTL)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to generate tokens", err, "user_id", user.ID)
		dto.InternalError(c, "failed to generate tokens")
		return
	}

	c.SetCookie(refreshCookie, tokens.RefreshToken, int(h.refreshTTL.Seconds()), "/v1/auth/refresh", "", false, true)

	resp := &dto.AuthResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.accessTTL.Seconds()),
		User:         dto.ToAuthUserDTO(user),
	}
	if status == http.StatusCreated {
		dto.Created(c, resp)
		return
	}
	dto.Success(c, resp)
}
