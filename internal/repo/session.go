package repo

import (
	"context"

	"github.com/Skotchmaster/snakeoil/internal/models"
)

func (r *GormRepo) CreateSession(ctx context.Context, s *models.Session) error {
	return mapErr(r.DB.WithContext(ctx).Create(s).Error)
}

func (r *GormRepo) GetSession(ctx context.Context, jti string) (models.Session, error) {
	var s models.Session
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&s).Error; err != nil {
		return models.Session{}, mapErr(err)
	}
	return s, nil
}

func (r *GormRepo) RevokeSession(ctx context.Context, jti string) error {
	res := r.DB.WithContext(ctx).Model(&models.Session{}).Where("jti = ?", jti).Update("revoked", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
