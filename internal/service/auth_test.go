package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/domain"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/repository/mocks"
	"github.com/blakebrandon-hub/GH-Turn-based-Queue-Test/internal/service"
)

// --- 测试 Register 方法 ---

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange: 准备 Mock 对象, Service 实例, 和测试数据
	mockUserRepo := new(mocks.UserRepository)
	authService, err := service.NewAuthService(mockUserRepo, "very-secret-key", 1)
	require.NoError(t, err, "创建 AuthService 不应失败")

	ctx := context.Background()
	username := "newbie"
	password := "StrongPass123"

	// 设置 Mock 预期: Save 被调用时模拟保存成功并填充 ID/时间戳
	mockUserRepo.On("Save", ctx, mock.MatchedBy(func(user *domain.User) bool {
		// 断言以返回值表达：AssertExpectations 会在 Service 清空密码后再次
		// 调用本匹配器，在此处使用 assert 会产生误报
		if user.Username != username {
			return false
		}
		// 验证密码已被哈希
		return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
	})).
		Run(func(args mock.Arguments) { // 模拟数据库填充字段
			userArg := args.Get(1).(*domain.User)
			userArg.ID = 5
			userArg.CreatedAt = time.Now().Add(-time.Second)
		}).
		Return(nil).
		Once()

	// Act
	registeredUser, err := authService.Register(ctx, username, password)

	// Assert
	assert.NoError(t, err, "成功注册时不应有错误")
	require.NotNil(t, registeredUser, "成功注册时应返回用户对象")
	assert.Equal(t, uint(5), registeredUser.ID)
	assert.Equal(t, username, registeredUser.Username)
	assert.Empty(t, registeredUser.Password, "返回的用户密码应为空") // Service 应清除密码
	assert.False(t, registeredUser.CreatedAt.IsZero(), "创建时间应被设置")

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()

	// 设置 Mock 预期: Save 返回唯一约束冲突
	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).
		Return(repository.ErrDuplicateEntry).
		Once()

	// Act
	_, err := authService.Register(ctx, "existingUser", "password123")

	// Assert
	require.Error(t, err, "用户名已存在时应返回错误")
	assert.True(t, errors.Is(err, service.ErrRegistrationFailed), "错误类型应为 ErrRegistrationFailed")

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_PasswordTooShort(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)

	// Act
	_, err := authService.Register(context.Background(), "newbie", "short")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidInput), "过短的密码应返回 ErrInvalidInput")
	// 输入校验失败时不应触达存储层
	mockUserRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- 测试 Login 方法 ---

func TestAuthService_Login_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()
	username := "testuser"
	password := "password123"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: 1, Username: username, Password: string(hashedPassword)}

	mockUserRepo.On("FindByUsername", ctx, username).Return(userInDb, nil).Once()

	// Act
	token, err := authService.Login(ctx, username, password)

	// Assert
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()
	username := "nonexistent"

	mockUserRepo.On("FindByUsername", ctx, username).Return(nil, repository.ErrUserNotFound).Once()

	// Act
	token, err := authService.Login(ctx, username, "password")

	// Assert
	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_IncorrectPassword(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()
	username := "testuser"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: 1, Username: username, Password: string(hashedPassword)}

	mockUserRepo.On("FindByUsername", ctx, username).Return(userInDb, nil).Once()

	// Act
	token, err := authService.Login(ctx, username, "wrongpassword")

	// Assert
	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))

	mockUserRepo.AssertExpectations(t)
}
