// Package memory is a map-backed repo.Store used by tests and local demos.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/repo"
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	seq        uint
	products   map[uint]models.Product
	carts      map[uint]models.Cart
	items      map[uint]models.CartItem
	users      map[uint]models.User
	groups     map[uint]models.Group
	groupPerms map[uint][]string
	userGroups map[uint][]uint
	sessions   map[string]models.Session
}

var _ repo.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:        func() time.Time { return time.Now().UTC() },
		products:   map[uint]models.Product{},
		carts:      map[uint]models.Cart{},
		items:      map[uint]models.CartItem{},
		users:      map[uint]models.User{},
		groups:     map[uint]models.Group{},
		groupPerms: map[uint][]string{},
		userGroups: map[uint][]uint{},
		sessions:   map[string]models.Session{},
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.products {
		if existing.Code == p.Code {
			return fmt.Errorf("%w: product code %q", repo.ErrDuplicate, p.Code)
		}
	}
	p.Fold()
	p.ID = s.nextID()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = *p
	return nil
}

func (s *Store) GetProduct(_ context.Context, id uint) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetProductByCode(_ context.Context, code string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Code == code {
			return p, nil
		}
	}
	return models.Product{}, repo.ErrNotFound
}

func (s *Store) UpdateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.products[p.ID]
	if !ok {
		return repo.ErrNotFound
	}
	cur.Name = p.Name
	cur.Description = p.Description
	cur.Price = p.Price
	cur.NumInStock = p.NumInStock
	cur.Fold()
	cur.UpdatedAt = s.now()
	s.products[p.ID] = cur
	*p = cur
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.products, id)
	for itemID, it := range s.items {
		if it.ProductID == id {
			delete(s.items, itemID)
		}
	}
	return nil
}

func (s *Store) FindByCodeOrNameContaining(_ context.Context, q string, sort models.SortKey) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := models.Fold(q)
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if needle == "" ||
			strings.Contains(p.CodeFolded, needle) ||
			strings.Contains(p.NameFolded, needle) {
			out = append(out, p)
		}
	}

	column, desc := sort.Column()
	slices.SortFunc(out, func(a, b models.Product) int {
		var c int
		if column == "price" {
			c = a.Price.Cmp(b.Price)
		} else {
			c = strings.Compare(a.NameFolded, b.NameFolded)
		}
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (s *Store) ListRecentlyUpdated(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sortedProducts()
	slices.SortStableFunc(out, func(a, b models.Product) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out, nil
}

func (s *Store) ListProducts(_ context.Context, offset, limit int) ([]models.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sortedProducts()
	total := int64(len(all))
	if offset >= len(all) {
		return []models.Product{}, total, nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end], total, nil
}

func (s *Store) sortedProducts() []models.Product {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b models.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) GetOrCreateCart(_ context.Context, userID uint) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	c := models.Cart{ID: s.nextID(), UserID: userID}
	s.carts[c.ID] = c
	return c, nil
}

func (s *Store) IncrementLine(_ context.Context, cartID, productID uint, delta int) (models.CartItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if it.CartID != cartID || it.ProductID != productID {
			continue
		}
		if delta > 0 && it.Quantity > repo.MaxLineQuantity-delta {
			return models.CartItem{}, false, repo.ErrQuantityLimit
		}
		it.Quantity += delta
		if it.Quantity <= 0 {
			delete(s.items, id)
			return it, true, nil
		}
		s.items[id] = it
		return it, false, nil
	}
	if delta <= 0 {
		return models.CartItem{}, true, nil
	}
	if delta > repo.MaxLineQuantity {
		return models.CartItem{}, false, repo.ErrQuantityLimit
	}
	it := models.CartItem{ID: s.nextID(), CartID: cartID, ProductID: productID, Quantity: delta}
	s.items[it.ID] = it
	return it, false, nil
}

func (s *Store) ClearCart(_ context.Context, cartID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, it := range s.items {
		if it.CartID == cartID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Lines(_ context.Context, cartID uint) ([]models.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines(cartID), nil
}

func (s *Store) lines(cartID uint) []models.CartItem {
	out := []models.CartItem{}
	for _, it := range s.items {
		if it.CartID == cartID {
			it.Product = s.products[it.ProductID]
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b models.CartItem) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *Store) SumQuantities(_ context.Context, cartID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, it := range s.lines(cartID) {
		total += it.Quantity
	}
	return total, nil
}

func (s *Store) SumLineTotals(_ context.Context, cartID uint) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.lines(cartID) {
		total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2), nil
}

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("%w: username %q", repo.ErrDuplicate, u.Username)
		}
	}
	u.ID = s.nextID()
	stored := *u
	stored.Groups = nil
	s.users[u.ID] = stored
	return nil
}

func (s *Store) GetUser(_ context.Context, id uint) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repo.ErrNotFound
}

func (s *Store) UpdatePassword(_ context.Context, userID uint, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.PasswordHash = hash
	s.users[userID] = u
	return nil
}

func (s *Store) SetStaff(_ context.Context, userID uint, staff bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.IsStaff = staff
	s.users[userID] = u
	return nil
}

func (s *Store) EnsureGroup(_ context.Context, name string, codenames []string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var group models.Group
	for _, g := range s.groups {
		if g.Name == name {
			group = g
			break
		}
	}
	if group.ID == 0 {
		group = models.Group{ID: s.nextID(), Name: name}
		s.groups[group.ID] = group
	}
	s.groupPerms[group.ID] = slices.Clone(codenames)
	return group, nil
}

func (s *Store) AddUserToGroup(_ context.Context, userID, groupID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return repo.ErrNotFound
	}
	if _, ok := s.groups[groupID]; !ok {
		return repo.ErrNotFound
	}
	if !slices.Contains(s.userGroups[userID], groupID) {
		s.userGroups[userID] = append(s.userGroups[userID], groupID)
	}
	return nil
}

func (s *Store) Permissions(_ context.Context, userID uint) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, gid := range s.userGroups[userID] {
		for _, p := range s.groupPerms[gid] {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	slices.Sort(out)
	return out, nil
}

func (s *Store) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.JTI]; ok {
		return fmt.Errorf("%w: session %q", repo.ErrDuplicate, sess.JTI)
	}
	sess.ID = s.nextID()
	s.sessions[sess.JTI] = *sess
	return nil
}

func (s *Store) GetSession(_ context.Context, jti string) (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[jti]
	if !ok {
		return models.Session{}, repo.ErrNotFound
	}
	return sess, nil
}

func (s *Store) RevokeSession(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[jti]
	if !ok {
		return repo.ErrNotFound
	}
	sess.Revoked = true
	s.sessions[jti] = sess
	return nil
}
