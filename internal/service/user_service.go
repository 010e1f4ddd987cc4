package service

import (
	"context"
	"errors"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrEmailExists = errors.New("email already exists")

type UserService interface {
	SeedDefaults(ctx context.Context, adminEmail, adminPassword string) error
	CreateUser(ctx context.Context, actor model.Actor, req *CreateUserRequest) (*model.UserResponse, error)
	GetAllUsers(ctx context.Context) ([]model.UserResponse, error)
	GetRoles(ctx context.Context) ([]model.Role, error)
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	RoleCode string `json:"role_code" validate:"required,oneof=ADMIN STAFF"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
	}
}

// SeedDefaults creates default privileges, roles, and the admin user if they don't exist
func (s *userService) SeedDefaults(ctx context.Context, adminEmail, adminPassword string) error {
	log := logger.FromContext(ctx)

	if err := s.privilegeRepo.SeedDefaults(ctx); err != nil {
		return err
	}
	if err := s.roleRepo.SeedDefaults(ctx); err != nil {
		return err
	}

	_, err := s.userRepo.FindByEmail(ctx, adminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	adminRole, err := s.roleRepo.FindByCode(ctx, model.RoleAdmin)
	if err != nil {
		return err
	}
	admin := &model.User{
		Email:    adminEmail,
		FullName: "Administrator",
		RoleID:   &adminRole.ID,
		IsActive: true,
	}
	admin.Stamp("system")
	if err := admin.SetPassword(adminPassword); err != nil {
		return err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return err
	}
	log.Info("admin user created", zap.String("email", adminEmail))
	return nil
}

func (s *userService) CreateUser(ctx context.Context, actor model.Actor, req *CreateUserRequest) (*model.UserResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	if existing, _ := s.userRepo.FindByEmail(ctx, req.Email); existing != nil {
		return nil, apperror.Conflict(ErrEmailExists.Error())
	}

	role, err := s.roleRepo.FindByCode(ctx, req.RoleCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("role", req.RoleCode)
		}
		return nil, apperror.Internal(err)
	}

	user := &model.User{
		Email:    req.Email,
		FullName: req.FullName,
		RoleID:   &role.ID,
		IsActive: true,
	}
	user.Stamp(actor.AuditName())
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Internal(err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(ErrEmailExists.Error())
		}
		return nil, apperror.Internal(err)
	}

	user.Role = role
	resp := user.ToResponse()
	return &resp, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	out := make([]model.UserResponse, len(users))
	for i := range users {
		out[i] = users[i].ToResponse()
	}
	return out, nil
}

func (s *userService) GetRoles(ctx context.Context) ([]model.Role, error) {
	roles, err := s.roleRepo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return roles, nil
}
