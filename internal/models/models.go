package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name         string `gorm:"size:100;not null"            json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:150;not null"            json:"-"`
}

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"            json:"id"`
	Name        string  `gorm:"size:100;not null"                   json:"name"`
	Description string  `gorm:"type:text"                           json:"description"`
	Price       float64 `gorm:"not null"                            json:"price"`
	ImageFile   string  `gorm:"size:50;not null;default:default.jpg" json:"image_file"`
}

// CartItem is the quantity of one product a user intends to buy.
// (user_id, product_id) is unique; rows go away with either side.
type CartItem struct {
	ID        uint     `gorm:"primaryKey;autoIncrement"                         json:"id"`
	UserID    uint     `gorm:"uniqueIndex:idx_cart_user_product;not null"       json:"user_id"`
	ProductID uint     `gorm:"uniqueIndex:idx_cart_user_product;index;not null" json:"product_id"`
	Quantity  int      `gorm:"not null;default:1;check:quantity > 0"            json:"quantity"`
	User      *User    `gorm:"constraint:OnDelete:CASCADE;"                     json:"-"`
	Product   *Product `gorm:"constraint:OnDelete:CASCADE;"                     json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// All lists every model in migration order.
func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}}
}
