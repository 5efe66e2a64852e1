package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/snakeoil/internal/models"
)

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	p.Fold()
	return mapErr(r.DB.WithContext(ctx).Create(p).Error)
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, id).Error; err != nil {
		return models.Product{}, mapErr(err)
	}
	return p, nil
}

func (r *GormRepo) GetProductByCode(ctx context.Context, code string) (models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Where("code = ?", code).First(&p).Error; err != nil {
		return models.Product{}, mapErr(err)
	}
	return p, nil
}

func (r *GormRepo) UpdateProduct(ctx context.Context, p *models.Product) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changes := *p
		changes.Fold()
		res := tx.Model(p).
			Select("name", "name_folded", "description", "price", "num_in_stock").
			Updates(&changes)
		if res.Error != nil {
			return mapErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return mapErr(tx.First(p, p.ID).Error)
	})
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepo) FindByCodeOrNameContaining(ctx context.Context, q string, sort models.SortKey) ([]models.Product, error) {
	column, desc := sort.Column()
	if column == "name" {
		column = "name_folded"
	}

	tx := r.DB.WithContext(ctx).Model(&models.Product{})
	if q != "" {
		pattern := likePattern(q)
		tx = tx.Where(`code_folded LIKE ? ESCAPE '\' OR name_folded LIKE ? ESCAPE '\'`, pattern, pattern)
	}

	var out []models.Product
	err := tx.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) ListRecentlyUpdated(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	if err := r.DB.WithContext(ctx).Order("updated_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.Product
	if err := r.DB.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
