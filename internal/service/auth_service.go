package service

import (
	"context"
	"errors"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type AuthService interface {
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"` // flat list for easy checking
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Unauthorized(ErrInvalidCredentials.Error()).Wrap(ErrInvalidCredentials)
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, apperror.Unauthorized(ErrUserInactive.Error()).Wrap(ErrUserInactive)
	}

	// 3. Verify password
	if !user.CheckPassword(req.Password) {
		return nil, apperror.Unauthorized(ErrInvalidCredentials.Error()).Wrap(ErrInvalidCredentials)
	}

	// 4. Issue token carrying role and privileges
	privileges := user.PrivilegeCodes()
	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), privileges)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	logger.FromContext(ctx).Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("role", user.RoleCode()))
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: privileges,
	}, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := validate(req); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return apperror.NotFound("user", "").Wrap(ErrUserNotFound)
	}
	if !user.CheckPassword(req.OldPassword) {
		return apperror.Unauthorized(ErrWrongPassword.Error()).Wrap(ErrWrongPassword)
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return apperror.Internal(err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token").Wrap(err)
	}

	// the account may have been disabled since the token was issued
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperror.Unauthorized(ErrUserNotFound.Error()).Wrap(ErrUserNotFound)
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized(ErrUserInactive.Error()).Wrap(ErrUserInactive)
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}
