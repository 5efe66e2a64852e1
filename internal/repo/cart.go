package repo

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/snakeoil/internal/models"
)

func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID uint) (models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error
	if err = mapErr(err); errors.Is(err, ErrDuplicate) {
		// lost a race with a concurrent create for the same user
		err = r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&cart).Error
	}
	if err != nil {
		return models.Cart{}, mapErr(err)
	}
	return cart, nil
}

func (r *GormRepo) IncrementLine(ctx context.Context, cartID, productID uint, delta int) (models.CartItem, bool, error) {
	var (
		item    models.CartItem
		removed bool
	)
	if delta > MaxLineQuantity {
		return models.CartItem{}, false, ErrQuantityLimit
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line := tx.Model(&models.CartItem{}).Where("cart_id = ? AND product_id = ?", cartID, productID)
		if delta > 0 {
			line = line.Where("quantity <= ?", MaxLineQuantity-delta)
		}
		res := line.Update("quantity", gorm.Expr("quantity + ?", delta))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			if delta <= 0 {
				removed = true
				return nil
			}
			var existing int64
			if err := tx.Model(&models.CartItem{}).
				Where("cart_id = ? AND product_id = ?", cartID, productID).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return ErrQuantityLimit
			}
			item = models.CartItem{CartID: cartID, ProductID: productID, Quantity: delta}
			return tx.Omit(clause.Associations).Create(&item).Error
		}

		if err := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error; err != nil {
			return err
		}
		if item.Quantity <= 0 {
			removed = true
			return tx.Delete(&models.CartItem{}, item.ID).Error
		}
		return nil
	})
	if err != nil {
		return models.CartItem{}, false, mapErr(err)
	}
	return item, removed, nil
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) (int64, error) {
	res := r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) Lines(ctx context.Context, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) SumQuantities(ctx context.Context, cartID uint) (int, error) {
	var total int64
	err := r.DB.WithContext(ctx).
		Model(&models.CartItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("cart_id = ?", cartID).
		Row().Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// SumLineTotals prices every line at the current product price.
func (r *GormRepo) SumLineTotals(ctx context.Context, cartID uint) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.DB.WithContext(ctx).
		Table("cart_items").
		Select("SUM(cart_items.quantity * products.price)").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cartID).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal.Round(2), nil
}
