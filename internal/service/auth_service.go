package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stevedore-dev/stevedore/internal/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService 认证服务：本地用户（bcrypt）+ 可选 OIDC，统一签发 JWT
type AuthService struct {
	logger *zap.Logger
	jwtCfg config.JWTConfig
	users  map[string]string // 用户名 -> bcrypt 哈希
	oidc   *oidcAuthenticator
}

type oidcAuthenticator struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth    oauth2.Config
}

func NewAuthService(ctx context.Context, logger *zap.Logger, cfg *config.AppConfig) (*AuthService, error) {
	s := &AuthService{
		logger: logger,
		jwtCfg: cfg.JWT,
		users:  cfg.Users,
	}

	if cfg.OIDC != nil && cfg.OIDC.Enabled {
		provider, err := oidc.NewProvider(ctx, cfg.OIDC.Issuer)
		if err != nil {
			return nil, fmt.Errorf("初始化 OIDC Provider 失败: %w", err)
		}
		s.oidc = &oidcAuthenticator{
			provider: provider,
			verifier: provider.Verifier(&oidc.Config{ClientID: cfg.OIDC.ClientID}),
			oauth: oauth2.Config{
				ClientID:     cfg.OIDC.ClientID,
				ClientSecret: cfg.OIDC.ClientSecret,
				RedirectURL:  cfg.OIDC.RedirectURL,
				Endpoint:     provider.Endpoint(),
				Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
			},
		}
		logger.Info("OIDC 登录已启用", zap.String("issuer", cfg.OIDC.Issuer))
	}

	return s, nil
}

// Login 本地用户登录，成功返回 JWT
func (s *AuthService) Login(username, password string) (string, error) {
	hash, ok := s.users[username]
	if !ok {
		// 与密码错误走同一条路径，不暴露用户是否存在
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.logger.Warn("登录失败", zap.String("username", username))
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(username)
}

// IssueToken 为指定用户签发 JWT
func (s *AuthService) IssueToken(subject string) (string, error) {
	expires := s.jwtCfg.ExpiresHours
	if expires <= 0 {
		expires = 24
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expires) * time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.Secret))
}

// VerifyToken 校验 JWT 并返回用户名
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// OIDCEnabled 是否启用了 OIDC 登录
func (s *AuthService) OIDCEnabled() bool {
	return s.oidc != nil
}

// OIDCAuthURL 生成 OIDC 授权跳转地址
func (s *AuthService) OIDCAuthURL(state string) (string, error) {
	if s.oidc == nil {
		return "", errors.New("OIDC 未启用")
	}
	return s.oidc.oauth.AuthCodeURL(state), nil
}

// OIDCExchange 用授权码换取 ID Token，校验通过后签发本地 JWT
func (s *AuthService) OIDCExchange(ctx context.Context, code string) (string, error) {
	if s.oidc == nil {
		return "", errors.New("OIDC 未启用")
	}

	token, err := s.oidc.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("授权码交换失败: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return "", errors.New("OIDC 响应缺少 id_token")
	}

	idToken, err := s.oidc.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return "", fmt.Errorf("ID Token 校验失败: %w", err)
	}

	var claims struct {
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return "", err
	}

	subject := claims.PreferredUsername
	if subject == "" {
		subject = claims.Email
	}
	if subject == "" {
		subject = idToken.Subject
	}

	s.logger.Info("OIDC 登录成功", zap.String("subject", subject))
	return s.IssueToken(subject)
}
