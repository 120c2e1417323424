package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/sneaker_shop/internal/models"
)

// AddToCart adds one unit of a product to the user's cart with a single
// upsert and returns the resulting row.
func (r *GormRepo) AddToCart(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").Where("id = ?", productID).First(&product).Error; err != nil {
			return err
		}

		row := models.CartItem{UserID: userID, ProductID: productID, Quantity: 1}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("cart_items.quantity + ?", 1),
			}),
		}).Omit(clause.Associations).Create(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return gorm.ErrRecordNotFound
			}
			return err
		}
		return tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CountCartItems(ctx context.Context, userID uint) (int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *GormRepo) ListCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
