package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"     json:"pk"`
	Code        string          `gorm:"uniqueIndex;size:50;not null" json:"sku"`
	Name        string          `gorm:"size:200;not null"            json:"name"`
	Description string          `gorm:"not null"                     json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(8,2);not null"   json:"price"`
	NumInStock  int             `gorm:"not null;default:0"           json:"num_in_stock"`
	CreatedAt   time.Time       `json:"created"`
	UpdatedAt   time.Time       `json:"updated"`

	// Lower-cased copies used for search and name ordering. SQLite's LOWER()
	// only folds ASCII, so folding happens here instead.
	CodeFolded string `gorm:"size:50;not null;default:''"      json:"-"`
	NameFolded string `gorm:"size:200;not null;default:'';index" json:"-"`
}

// Fold refreshes the lower-cased search keys from Code and Name.
func (p *Product) Fold() {
	p.CodeFolded = Fold(p.Code)
	p.NameFolded = Fold(p.Name)
}

// Fold is the case folding applied to search keys and queries.
func Fold(s string) string {
	return strings.ToLower(s)
}

type User struct {
	ID           uint    `gorm:"primaryKey;autoIncrement"   json:"id"`
	Username     string  `gorm:"uniqueIndex;size:150;not null" json:"username"`
	PasswordHash string  `gorm:"not null"                   json:"-"`
	IsStaff      bool    `gorm:"not null;default:false"     json:"is_staff"`
	Groups       []Group `gorm:"many2many:user_groups;"     json:"groups,omitempty"`
}

type Group struct {
	ID          uint         `gorm:"primaryKey;autoIncrement"        json:"id"`
	Name        string       `gorm:"uniqueIndex;size:150;not null"   json:"name"`
	Permissions []Permission `gorm:"many2many:group_permissions;"    json:"permissions,omitempty"`
}

type Permission struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Codename string `gorm:"uniqueIndex;size:100;not null" json:"codename"`
}

type Session struct {
	ID        uint      `gorm:"primaryKey"             json:"id"`
	JTI       string    `gorm:"uniqueIndex;not null"   json:"jti"`
	UserID    uint      `gorm:"index;not null"         json:"user_id"`
	ExpiresAt time.Time `gorm:"not null"               json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
}

type Cart struct {
	ID     uint       `gorm:"primaryKey"          json:"id"`
	UserID uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Items  []CartItem `gorm:"foreignKey:CartID"   json:"items,omitempty"`
}

type CartItem struct {
	ID        uint    `gorm:"primaryKey"                                json:"id"`
	CartID    uint    `gorm:"uniqueIndex:idx_cart_product;not null"     json:"cart_id"`
	ProductID uint    `gorm:"uniqueIndex:idx_cart_product;not null"     json:"product_id"`
	Quantity  int     `gorm:"not null;default:1"                        json:"num_items"`
	Product   Product `gorm:"constraint:OnDelete:CASCADE;"              json:"product"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// All lists every model that the schema migration has to create.
func All() []any {
	return []any{
		&Product{},
		&Permission{},
		&Group{},
		&User{},
		&Session{},
		&Cart{},
		&CartItem{},
	}
}
