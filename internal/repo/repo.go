// Package repo declares the storage contracts of the shop and implements them
// on top of gorm. The memory subpackage provides a map-backed implementation.
package repo

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/snakeoil/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrQuantityLimit is returned when a cart line would exceed MaxLineQuantity.
	ErrQuantityLimit = errors.New("line quantity limit exceeded")
)

// MaxLineQuantity caps the quantity column, which is a 32-bit integer in Postgres.
const MaxLineQuantity = math.MaxInt32

type ProductRepo interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id uint) (models.Product, error)
	GetProductByCode(ctx context.Context, code string) (models.Product, error)
	// UpdateProduct writes name, description, price and stock of p and reloads it.
	UpdateProduct(ctx context.Context, p *models.Product) error
	// DeleteProduct also drops every cart line referencing the product.
	DeleteProduct(ctx context.Context, id uint) error
	// FindByCodeOrNameContaining matches q case-insensitively against code or
	// name; an empty q matches everything. Ties are ordered by id.
	FindByCodeOrNameContaining(ctx context.Context, q string, sort models.SortKey) ([]models.Product, error)
	ListRecentlyUpdated(ctx context.Context) ([]models.Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]models.Product, int64, error)
}

type CartRepo interface {
	GetOrCreateCart(ctx context.Context, userID uint) (models.Cart, error)
	// IncrementLine adds delta to the (cart, product) line, creating it when
	// missing. A line whose quantity would end up <= 0 is not kept; removed
	// reports that case. A positive delta that would push the line past
	// MaxLineQuantity fails with ErrQuantityLimit and leaves the line untouched.
	IncrementLine(ctx context.Context, cartID, productID uint, delta int) (item models.CartItem, removed bool, err error)
	ClearCart(ctx context.Context, cartID uint) (int64, error)
	// Lines returns the cart lines with their products, oldest line first.
	Lines(ctx context.Context, cartID uint) ([]models.CartItem, error)
	SumQuantities(ctx context.Context, cartID uint) (int, error)
	SumLineTotals(ctx context.Context, cartID uint) (decimal.Decimal, error)
}

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uint) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdatePassword(ctx context.Context, userID uint, hash string) error
	SetStaff(ctx context.Context, userID uint, staff bool) error
	// EnsureGroup creates the group if needed and sets its permissions to exactly codenames.
	EnsureGroup(ctx context.Context, name string, codenames []string) (models.Group, error)
	AddUserToGroup(ctx context.Context, userID, groupID uint) error
	Permissions(ctx context.Context, userID uint) ([]string, error)
}

type SessionRepo interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, jti string) (models.Session, error)
	RevokeSession(ctx context.Context, jti string) error
}

// Store bundles every repository the services need.
type Store interface {
	ProductRepo
	CartRepo
	UserRepo
	SessionRepo
}
