package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/snakeoil/internal/access"
	"github.com/Skotchmaster/snakeoil/internal/events"
	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/repo"
)

// QuantityPolicy decides what add-to-cart does with num_items < 1.
type QuantityPolicy string

const (
	// QuantityStrict rejects non-positive quantities.
	QuantityStrict QuantityPolicy = "strict"
	// QuantityLenient applies them; a line that drops to zero or below is removed.
	QuantityLenient QuantityPolicy = "lenient"
)

type CartService struct {
	Carts    repo.CartRepo
	Products repo.ProductRepo
	Policy   QuantityPolicy
	Events   events.Publisher
}

type Summary struct {
	NumItems   int             `json:"num_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d items | %s €", s.NumItems, s.TotalPrice.StringFixed(2))
}

type Line struct {
	Product   models.Product  `json:"product"`
	NumItems  int             `json:"num_items"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartView struct {
	Lines   []Line  `json:"lines"`
	Summary Summary `json:"summary"`
}

type AddResult struct {
	Product      models.Product
	NumAdded     int
	LineQuantity int
	LineRemoved  bool
	Summary      Summary
}

func (s *CartService) AddToCart(ctx context.Context, p access.Principal, in forms.AddToCart) (AddResult, error) {
	if !p.Authenticated() {
		return AddResult{}, fmt.Errorf("add to cart: %w", ErrUnauthenticated)
	}
	l := logging.FromContext(ctx)

	if in.Quantity < 1 {
		if s.Policy != QuantityLenient {
			return AddResult{}, forms.Single("num_items", forms.MsgPositive)
		}
		l.Warn("non_positive_quantity", "user_id", p.UserID, "product_id", in.ProductID, "num_items", in.Quantity)
	}

	prod, err := s.Products.GetProduct(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return AddResult{}, fmt.Errorf("product %d: %w", in.ProductID, ErrNotFound)
	}
	if err != nil {
		return AddResult{}, err
	}

	cart, err := s.Carts.GetOrCreateCart(ctx, p.UserID)
	if err != nil {
		return AddResult{}, err
	}
	item, removed, err := s.Carts.IncrementLine(ctx, cart.ID, prod.ID, in.Quantity)
	if errors.Is(err, repo.ErrQuantityLimit) {
		return AddResult{}, forms.Single("num_items", forms.MsgLineLimit)
	}
	if err != nil {
		return AddResult{}, err
	}

	sum, err := s.summary(ctx, cart.ID)
	if err != nil {
		return AddResult{}, err
	}

	publish(ctx, s.Events, events.TopicCarts, userKey(p), events.Event{
		Type:    events.CartItemAdded,
		ActorID: p.UserID,
		Payload: map[string]any{"product_id": prod.ID, "num_items": in.Quantity, "line_quantity": item.Quantity},
	})

	return AddResult{
		Product:      prod,
		NumAdded:     in.Quantity,
		LineQuantity: item.Quantity,
		LineRemoved:  removed,
		Summary:      sum,
	}, nil
}

func (s *CartService) Summary(ctx context.Context, p access.Principal) (Summary, error) {
	if !p.Authenticated() {
		return Summary{}, fmt.Errorf("cart summary: %w", ErrUnauthenticated)
	}
	cart, err := s.Carts.GetOrCreateCart(ctx, p.UserID)
	if err != nil {
		return Summary{}, err
	}
	return s.summary(ctx, cart.ID)
}

func (s *CartService) View(ctx context.Context, p access.Principal) (CartView, error) {
	if !p.Authenticated() {
		return CartView{}, fmt.Errorf("cart view: %w", ErrUnauthenticated)
	}
	cart, err := s.Carts.GetOrCreateCart(ctx, p.UserID)
	if err != nil {
		return CartView{}, err
	}
	items, err := s.Carts.Lines(ctx, cart.ID)
	if err != nil {
		return CartView{}, err
	}

	view := CartView{Lines: make([]Line, 0, len(items))}
	for _, it := range items {
		view.Lines = append(view.Lines, Line{
			Product:   it.Product,
			NumItems:  it.Quantity,
			LineTotal: it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2),
		})
	}
	view.Summary, err = s.summary(ctx, cart.ID)
	if err != nil {
		return CartView{}, err
	}
	return view, nil
}

// Clear empties the caller's cart. Clearing an empty cart is a no-op.
func (s *CartService) Clear(ctx context.Context, p access.Principal) error {
	if !p.Authenticated() {
		return fmt.Errorf("clear cart: %w", ErrUnauthenticated)
	}
	cart, err := s.Carts.GetOrCreateCart(ctx, p.UserID)
	if err != nil {
		return err
	}
	n, err := s.Carts.ClearCart(ctx, cart.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		publish(ctx, s.Events, events.TopicCarts, userKey(p), events.Event{
			Type:    events.CartCleared,
			ActorID: p.UserID,
			Payload: map[string]any{"lines_removed": n},
		})
	}
	return nil
}

func (s *CartService) summary(ctx context.Context, cartID uint) (Summary, error) {
	n, err := s.Carts.SumQuantities(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	total, err := s.Carts.SumLineTotals(ctx, cartID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{NumItems: n, TotalPrice: total}, nil
}

func userKey(p access.Principal) string {
	return strconv.FormatUint(uint64(p.UserID), 10)
}
