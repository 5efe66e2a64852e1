package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/snakeoil/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return mapErr(r.DB.WithContext(ctx).Omit("Groups").Create(u).Error)
}

func (r *GormRepo) GetUser(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).First(&u, id).Error; err != nil {
		return models.User{}, mapErr(err)
	}
	return u, nil
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return models.User{}, mapErr(err)
	}
	return u, nil
}

func (r *GormRepo) UpdatePassword(ctx context.Context, userID uint, hash string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) SetStaff(ctx context.Context, userID uint, staff bool) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("is_staff", staff)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) EnsureGroup(ctx context.Context, name string, codenames []string) (models.Group, error) {
	var group models.Group
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms := make([]models.Permission, 0, len(codenames))
		for _, code := range codenames {
			var p models.Permission
			if err := tx.Where(models.Permission{Codename: code}).FirstOrCreate(&p).Error; err != nil {
				return err
			}
			perms = append(perms, p)
		}

		if err := tx.Where(models.Group{Name: name}).FirstOrCreate(&group).Error; err != nil {
			return err
		}
		return tx.Model(&group).Association("Permissions").Replace(perms)
	})
	if err != nil {
		return models.Group{}, mapErr(err)
	}
	return group, nil
}

func (r *GormRepo) AddUserToGroup(ctx context.Context, userID, groupID uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, userID).Error; err != nil {
			return mapErr(err)
		}
		var g models.Group
		if err := tx.First(&g, groupID).Error; err != nil {
			return mapErr(err)
		}
		return tx.Model(&u).Association("Groups").Append(&g)
	})
}

func (r *GormRepo) Permissions(ctx context.Context, userID uint) ([]string, error) {
	var out []string
	err := r.DB.WithContext(ctx).
		Table("permissions").
		Distinct("permissions.codename").
		Joins("JOIN group_permissions ON group_permissions.permission_id = permissions.id").
		Joins("JOIN user_groups ON user_groups.group_id = group_permissions.group_id").
		Where("user_groups.user_id = ?", userID).
		Order("permissions.codename").
		Pluck("permissions.codename", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
