// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey       []byte
	accessTokenDur  time.Duration
	refreshTokenDur time.Duration
}

// Subject 是签发 token 时需要的用户身份信息。
type Subject struct {
	UserID       uint
	Username     string
	Role         string
	DepartmentID *uint
}

// CustomClaims 定义了我们想要在 JWT 中存储的自定义数据。
// 它嵌入了 jwt.RegisteredClaims 以包含标准的 JWT 声明（如过期时间）。
type CustomClaims struct {
	UserID       uint   `json:"userId"`
	Username     string `json:"username"`
	Role         string `json:"role"`
	DepartmentID *uint  `json:"departmentId,omitempty"`
	TokenType    string `json:"tokenType"`
	jwt.RegisteredClaims
}

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"
)

// NewJWTManager 创建一个新的 JWTManager 实例。
// accessTokenExpireHours: access token 的过期时间（小时）。
// refreshTokenExpireDays: refresh token 的过期时间（天）。
func NewJWTManager(secret string, accessTokenExpireHours, refreshTokenExpireDays int) *JWTManager {
	return &JWTManager{
		secretKey:       []byte(secret),
		accessTokenDur:  time.Hour * time.Duration(accessTokenExpireHours),
		refreshTokenDur: time.Duration(refreshTokenExpireDays) * 24 * time.Hour,
	}
}

// GenerateToken 为给定用户签发 access token。
func (m *JWTManager) GenerateToken(sub Subject) (string, error) {
	return m.sign(sub, accessTokenType, m.accessTokenDur)
}

// GenerateRefreshToken 为给定用户签发 refresh token，有效期更长。
func (m *JWTManager) GenerateRefreshToken(sub Subject) (string, error) {
	return m.sign(sub, refreshTokenType, m.refreshTokenDur)
}

func (m *JWTManager) sign(sub Subject, tokenType string, dur time.Duration) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID:       sub.UserID,
		Username:     sub.Username,
		Role:         sub.Role,
		DepartmentID: sub.DepartmentID,
		TokenType:    tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(dur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// VerifyToken 验证 access token。
func (m *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	return m.verify(tokenString, accessTokenType)
}

// VerifyRefreshToken 验证 refresh token，拒绝把 access token 当作 refresh token 使用。
func (m *JWTManager) VerifyRefreshToken(tokenString string) (*CustomClaims, error) {
	return m.verify(tokenString, refreshTokenType)
}

func (m *JWTManager) verify(tokenString, tokenType string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, errors.New("unexpected token type")
	}
	return claims, nil
}
