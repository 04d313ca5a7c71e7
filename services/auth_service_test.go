package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"unicomm/auth"
	"unicomm/domain"
	"unicomm/errors"
	"unicomm/mocks"
)

func newAuthService(users *mocks.MockIUserRepository) *AuthService {
	return NewAuthService(testLogger(), users, auth.NewTokenManager("test-secret", 24*time.Hour))
}

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := newAuthService(mockRepo)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		password := "ComplexPass123!"

		// Expect CreateUser to be called with a hashed password (not the plain one)
		mockRepo.EXPECT().
			CreateUser("alice42", gomock.Not(password), domain.RoleUser).
			Return(domain.User{ID: 1, Username: "alice42", Role: domain.RoleUser, Active: true}, nil).
			Times(1)

		user, token, err := svc.Register("alice42", password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(int64(1), user.ID)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		// Repository should NEVER be called
		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, token, err := svc.Register("alice42", "simplelongpassword")

		req.ErrorIs(err, errors.ErrInvalidPassword)
		req.Empty(token)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser("duplicate1", gomock.Any(), domain.RoleUser).
			Return(domain.User{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, _, err := svc.Register("duplicate1", "ComplexPass123!")

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := newAuthService(mockRepo)

	password := "Secret123456!"
	hashedPassword, _ := auth.HashPassword(password)
	storedUser := domain.User{
		ID:           7,
		Username:     "alice",
		Role:         domain.RoleUser,
		PasswordHash: hashedPassword,
		Active:       true,
	}

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByUsername("alice").Return(storedUser, nil).Times(1)

		user, token, err := svc.Login("alice", password)

		req.NoError(err)
		req.NotEmpty(token)
		req.Equal(storedUser.ID, user.ID)
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByUsername("alice").Return(storedUser, nil).Times(1)

		_, _, err := svc.Login("alice", "WrongPass123!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should report unknown user as invalid credentials", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUserByUsername("ghost").Return(domain.User{}, errors.ErrNotFound).Times(1)

		_, _, err := svc.Login("ghost", password)

		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should reject a deactivated user even with correct password", func(t *testing.T) {
		req := require.New(t)
		inactive := storedUser
		inactive.Active = false

		mockRepo.EXPECT().GetUserByUsername("alice").Return(inactive, nil).Times(1)

		_, _, err := svc.Login("alice", password)

		req.ErrorIs(err, errors.ErrUserDeactivated)
	})
}

func TestAuthService_AdminOperations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := newAuthService(mockRepo)

	t.Run("admin promotes a user to agent", func(t *testing.T) {
		req := require.New(t)
		target := domain.User{ID: 5, Username: "bob", Role: domain.RoleUser, Active: true}

		mockRepo.EXPECT().GetUser(int64(5)).Return(target, nil).Times(1)
		mockRepo.EXPECT().UpdateUser(gomock.Any()).DoAndReturn(func(u domain.User) error {
			require.Equal(t, domain.RoleAgent, u.Role)
			return nil
		}).Times(1)

		user, err := svc.SetRole(asAdmin(1), 5, "agent")
		req.NoError(err)
		req.Equal(domain.RoleAgent, user.Role)
	})

	t.Run("non-admin cannot change roles, not even their own", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().GetUser(gomock.Any()).Times(0)

		_, err := svc.SetRole(asUser(5), 5, "admin")
		req.ErrorIs(err, errors.ErrPermissionDenied)

		_, err = svc.SetRole(asAgent(2), 5, "admin")
		req.ErrorIs(err, errors.ErrPermissionDenied)
	})

	t.Run("admin deactivates an account", func(t *testing.T) {
		req := require.New(t)
		target := domain.User{ID: 5, Username: "bob", Role: domain.RoleUser, Active: true}

		mockRepo.EXPECT().GetUser(int64(5)).Return(target, nil).Times(1)
		mockRepo.EXPECT().UpdateUser(gomock.Any()).DoAndReturn(func(u domain.User) error {
			require.False(t, u.Active)
			return nil
		}).Times(1)

		req.NoError(svc.Deactivate(asAdmin(1), 5))
	})

	t.Run("listing users is admin only", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().ListUsers().Return([]domain.User{{ID: 1}}, nil).Times(1)

		users, err := svc.ListUsers(asAdmin(1))
		req.NoError(err)
		req.Len(users, 1)

		_, err = svc.ListUsers(asAgent(2))
		req.ErrorIs(err, errors.ErrPermissionDenied)
	})
}
