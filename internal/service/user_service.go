package service

import (
	"context"
	"errors"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"okr-compass-go/pkg/hash"
	"okr-compass-go/pkg/log"
	"okr-compass-go/pkg/token"
	"strings"
	"time"

	"gorm.io/gorm"
)

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Register(ctx context.Context, username, password, fullName string) (*model.User, error)
	Login(ctx context.Context, username, password string) (accessToken, refreshToken string, err error)
	GetProfile(ctx context.Context, userID uint) (*model.User, error)
	Logout(ctx context.Context, tokenString string) error
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	blacklist  repository.TokenBlacklist
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, blacklist repository.TokenBlacklist, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:   userRepo,
		blacklist:  blacklist,
		jwtManager: jwtManager,
	}
}

func subjectOf(u *model.User) token.Subject {
	return token.Subject{UserID: u.ID, Username: u.Username, Role: u.Role, DepartmentID: u.DepartmentID}
}

// Register 处理用户注册的业务逻辑。新用户默认为普通成员，不属于任何部门。
func (s *userService) Register(ctx context.Context, username, password, fullName string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(password) < 6 {
		return nil, ErrInvalidInput
	}

	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if fullName == "" {
		fullName = username
	}
	newUser := &model.User{
		Username: username,
		Password: hashedPassword,
		FullName: fullName,
		Role:     model.RoleMember,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}
	log.Infof("[UserService] 新用户注册成功, username: %s, id: %d", newUser.Username, newUser.ID)
	return newUser, nil
}

// Login 处理用户登录的业务逻辑。
func (s *userService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, err error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return "", "", ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *userService) issue(user *model.User) (string, string, error) {
	accessToken, err := s.jwtManager.GenerateToken(subjectOf(user))
	if err != nil {
		return "", "", err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(subjectOf(user))
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// GetProfile 根据用户 ID 获取用户详细信息。
func (s *userService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// Logout 处理用户登出逻辑，将 token 加入黑名单，保留到其自然过期。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	return s.blacklist.Add(ctx, tokenString, time.Until(claims.ExpiresAt.Time))
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
// 角色与部门以数据库为准，管理员调整后在下一次刷新时生效。
func (s *userService) RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken, newRefreshToken string, err error) {
	claims, err := s.jwtManager.VerifyRefreshToken(refreshTokenString)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	revoked, err := s.blacklist.Contains(ctx, refreshTokenString)
	if err != nil {
		return "", "", err
	}
	if revoked {
		return "", "", ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", "", ErrInvalidToken
	}
	return s.issue(user)
}
