package services

import (
	"fmt"
	"log/slog"

	"unicomm/auth"
	"unicomm/contract"
	"unicomm/domain"
	"unicomm/errors"
)

type IAuthService interface {
	Register(username, password string) (domain.User, string, error)
	Login(username, password string) (domain.User, string, error)
	GetUser(id domain.Identity, userID int64) (domain.User, error)
	ListUsers(id domain.Identity) ([]domain.User, error)
	SetRole(id domain.Identity, userID int64, role string) (domain.User, error)
	Deactivate(id domain.Identity, userID int64) error
}

// AuthService owns accounts and identity tokens. Registration always
// grants the plain user role; promotions go through SetRole behind the
// manage gate.
type AuthService struct {
	log    *slog.Logger
	users  contract.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(log *slog.Logger, users contract.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{log: log, users: users, tokens: tokens}
}

func (s *AuthService) Register(username, password string) (domain.User, string, error) {
	if err := auth.ValidateRegister(auth.RegisterRequest{Username: username, Password: password}); err != nil {
		return domain.User{}, "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", err
	}
	user, err := s.users.CreateUser(username, hash, domain.RoleUser)
	if err != nil {
		return domain.User{}, "", err
	}
	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	s.log.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, token, nil
}

// Login deliberately reports the same error for an unknown username and
// a wrong password.
func (s *AuthService) Login(username, password string) (domain.User, string, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return domain.User{}, "", errors.ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return domain.User{}, "", errors.ErrInvalidCredentials
	}
	if !user.Active {
		return domain.User{}, "", errors.ErrUserDeactivated
	}
	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", errors.ErrTokenGeneration, err)
	}
	s.log.Info("User logged in", "user_id", user.ID)
	return user, token, nil
}

func (s *AuthService) GetUser(id domain.Identity, userID int64) (domain.User, error) {
	if err := auth.Authorize(id, auth.ActionRead, auth.Resource{Kind: auth.KindUser, OwnerID: userID}); err != nil {
		return domain.User{}, err
	}
	return s.users.GetUser(userID)
}

// ListUsers is an admin directory view.
func (s *AuthService) ListUsers(id domain.Identity) ([]domain.User, error) {
	if err := auth.Authorize(id, auth.ActionManage, auth.Resource{Kind: auth.KindUser}); err != nil {
		return nil, err
	}
	return s.users.ListUsers()
}

// SetRole changes a user's role. Manage is admin-only, so agents and
// users cannot promote themselves.
func (s *AuthService) SetRole(id domain.Identity, userID int64, role string) (domain.User, error) {
	if err := auth.Authorize(id, auth.ActionManage, auth.Resource{Kind: auth.KindUser, OwnerID: userID}); err != nil {
		return domain.User{}, err
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	user, err := s.users.GetUser(userID)
	if err != nil {
		return domain.User{}, err
	}
	user.Role = parsed
	if err := s.users.UpdateUser(user); err != nil {
		return domain.User{}, err
	}
	s.log.Info("Role changed", "user_id", userID, "role", role)
	return user, nil
}

// Deactivate flags the account so logins are refused. Existing tokens
// stay valid until expiry; revocation is out of scope here.
func (s *AuthService) Deactivate(id domain.Identity, userID int64) error {
	if err := auth.Authorize(id, auth.ActionManage, auth.Resource{Kind: auth.KindUser, OwnerID: userID}); err != nil {
		return err
	}
	user, err := s.users.GetUser(userID)
	if err != nil {
		return err
	}
	user.Active = false
	if err := s.users.UpdateUser(user); err != nil {
		return err
	}
	s.log.Info("User deactivated", "user_id", userID)
	return nil
}
