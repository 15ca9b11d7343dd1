// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"

	"gorm.io/gorm"
)

// 业务层的哨兵错误，由 handler 映射为 HTTP 状态码。
var (
	ErrNotFound           = errors.New("resource not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidLink        = errors.New("invalid alignment link")
	ErrDuplicateLink      = errors.New("alignment link already exists")
	ErrLinkClosed         = errors.New("alignment link is closed")
	ErrNotArchived        = errors.New("objective must be archived first")
	ErrUsernameTaken      = errors.New("用户名已存在")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid refresh token")
)

// notFound 把 GORM 的未找到错误统一为 ErrNotFound。
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
