package repository

import (
	"context"
	"errors"

	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll(ctx context.Context) ([]model.Role, error)
	FindByCode(ctx context.Context, code string) (*model.Role, error)
	SeedDefaults(ctx context.Context) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").Order("id ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// SeedDefaults creates missing roles and resets their privilege sets: ADMIN gets
// everything, STAFF everything except the admin-only privileges. Privileges must
// be seeded first.
func (r *roleRepo) SeedDefaults(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	var all []model.Privilege
	if err := db.Find(&all).Error; err != nil {
		return err
	}

	for _, defaultRole := range model.DefaultRoles {
		var role model.Role
		err := db.Where("code = ?", defaultRole.Code).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = model.Role{Code: defaultRole.Code, Name: defaultRole.Name, Description: defaultRole.Description}
			if err := db.Create(&role).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		grant := all
		if role.Code != model.RoleAdmin {
			grant = model.StaffPrivileges(all)
		}
		if err := db.Model(&role).Association("Privileges").Replace(grant); err != nil {
			return err
		}
	}
	return nil
}
