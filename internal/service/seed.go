package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/snakeoil/internal/access"
	"github.com/Skotchmaster/snakeoil/internal/hash"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/repo"
	"github.com/Skotchmaster/snakeoil/internal/search"
)

const (
	StaffUsername     = "demo.webmaster"
	ManagerUsername   = "demo.manager"
	StaffGroupName    = "shop.staff"
	ManagersGroupName = "shop.managers"

	passwordBytes = 16
)

var CustomerUsernames = []string{"demo.customer.x", "demo.customer.y", "demo.customer.z"}

func DemoProducts() []models.Product {
	return []models.Product{
		{
			Code:        "SKU001",
			Name:        "Clear snake oil",
			Description: "A clear liquid potentially possessing some aspects of the the essence of the regenerative properties of snake oil.",
			Price:       decimal.RequireFromString("11.99"),
			NumInStock:  108,
		},
		{
			Code:        "SKU002",
			Name:        "Turbid snake oil",
			Description: "A rather opaque extract from who knows what part of some venomous snake, likely from a deep jungle somewhere far away.",
			Price:       decimal.RequireFromString("16.99"),
			NumInStock:  273,
		},
		{
			Code:        "SKU003",
			Name:        "Thick snake oil",
			Description: "A viscous slime with a rather alarming aroma. Might be flammable enough to pose a moderate danger indoors.",
			Price:       decimal.RequireFromString("27.99"),
			NumInStock:  35,
		},
		{
			Code:        "SKU004",
			Name:        "Potent snake oil",
			Description: "This actively bubbling mixture of unknown biochemical agents will almost certainly cure all disese and illness that it by itself does not cause.",
			Price:       decimal.RequireFromString("33.99"),
			NumInStock:  1899,
		},
	}
}

type Credential struct {
	Username string
	Password string
}

// Seeder installs demo data. It writes straight to the repositories and
// bypasses permission checks.
type Seeder struct {
	Products repo.ProductRepo
	Users    repo.UserRepo
	Index    search.Index
}

// SeedProducts replaces any product whose code collides with a demo product.
func (s *Seeder) SeedProducts(ctx context.Context) ([]models.Product, error) {
	demo := DemoProducts()
	out := make([]models.Product, 0, len(demo))
	for _, p := range demo {
		old, err := s.Products.GetProductByCode(ctx, p.Code)
		switch {
		case err == nil:
			if err := s.Products.DeleteProduct(ctx, old.ID); err != nil {
				return nil, fmt.Errorf("remove old %s: %w", p.Code, err)
			}
			if s.Index != nil {
				if err := s.Index.DeleteProduct(ctx, old.ID); err != nil {
					logging.FromContext(ctx).Warn("search_index_error", "product_id", old.ID, "error", err)
				}
			}
		case !errors.Is(err, repo.ErrNotFound):
			return nil, err
		}

		if err := s.Products.CreateProduct(ctx, &p); err != nil {
			return nil, fmt.Errorf("create %s: %w", p.Code, err)
		}
		if s.Index != nil {
			if err := s.Index.IndexProduct(ctx, p); err != nil {
				return nil, fmt.Errorf("index %s: %w", p.Code, err)
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// SeedUsers creates or updates the demo accounts, giving every one of them a
// fresh random password.
func (s *Seeder) SeedUsers(ctx context.Context) ([]Credential, error) {
	var creds []Credential

	staff, cred, err := s.upsertUser(ctx, StaffUsername)
	if err != nil {
		return nil, err
	}
	creds = append(creds, cred)
	staffGroup, err := s.Users.EnsureGroup(ctx, StaffGroupName, access.AllPermissions())
	if err != nil {
		return nil, err
	}
	if err := s.Users.AddUserToGroup(ctx, staff.ID, staffGroup.ID); err != nil {
		return nil, err
	}
	if err := s.Users.SetStaff(ctx, staff.ID, true); err != nil {
		return nil, err
	}

	manager, cred, err := s.upsertUser(ctx, ManagerUsername)
	if err != nil {
		return nil, err
	}
	creds = append(creds, cred)
	managers, err := s.Users.EnsureGroup(ctx, ManagersGroupName, []string{access.AddProduct})
	if err != nil {
		return nil, err
	}
	if err := s.Users.AddUserToGroup(ctx, manager.ID, managers.ID); err != nil {
		return nil, err
	}

	for _, name := range CustomerUsernames {
		_, cred, err := s.upsertUser(ctx, name)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, nil
}

func (s *Seeder) upsertUser(ctx context.Context, username string) (models.User, Credential, error) {
	password, err := randomPassword()
	if err != nil {
		return models.User{}, Credential{}, err
	}
	h, err := hash.HashPassword(password)
	if err != nil {
		return models.User{}, Credential{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.Users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		if err := s.Users.UpdatePassword(ctx, u.ID, h); err != nil {
			return models.User{}, Credential{}, err
		}
	case errors.Is(err, repo.ErrNotFound):
		u = models.User{Username: username, PasswordHash: h}
		if err := s.Users.CreateUser(ctx, &u); err != nil {
			return models.User{}, Credential{}, fmt.Errorf("create %s: %w", username, err)
		}
	default:
		return models.User{}, Credential{}, err
	}
	return u, Credential{Username: username, Password: password}, nil
}

func randomPassword() (string, error) {
	b := make([]byte, passwordBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
