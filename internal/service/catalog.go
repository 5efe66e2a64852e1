package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Skotchmaster/snakeoil/internal/access"
	"github.com/Skotchmaster/snakeoil/internal/events"
	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/logging"
	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/repo"
	"github.com/Skotchmaster/snakeoil/internal/search"
	"github.com/Skotchmaster/snakeoil/internal/util"
)

type CatalogService struct {
	Repo   repo.ProductRepo
	Index  search.Index
	Events events.Publisher
}

type ProductPage struct {
	Items []models.Product
	Total int64
	Page  int
	Size  int
}

// Search runs a submitted search form.
func (s *CatalogService) Search(ctx context.Context, in forms.Search) ([]models.Product, error) {
	if !in.Sort.Valid() {
		return nil, forms.Single("sort_by", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", in.Sort))
	}
	return s.Repo.FindByCodeOrNameContaining(ctx, in.Query, in.Sort)
}

// DefaultView is the listing shown before any search is submitted.
func (s *CatalogService) DefaultView(ctx context.Context) ([]models.Product, error) {
	return s.Search(ctx, forms.DefaultSearch())
}

func (s *CatalogService) ListForManagement(ctx context.Context, p access.Principal) ([]models.Product, error) {
	if err := requirePermission(p, access.AddProduct); err != nil {
		return nil, err
	}
	return s.Repo.ListRecentlyUpdated(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id uint) (models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return prod, err
}

func (s *CatalogService) List(ctx context.Context, page, size int) (ProductPage, error) {
	from, limit := util.Calculate(page, size)
	items, total, err := s.Repo.ListProducts(ctx, from, limit)
	if err != nil {
		return ProductPage{}, err
	}
	return ProductPage{Items: items, Total: total, Page: from/limit + 1, Size: limit}, nil
}

// FullText searches the product index when one is configured and falls back
// to the substring search otherwise.
func (s *CatalogService) FullText(ctx context.Context, q string, page, size int) (ProductPage, error) {
	if q == "" {
		return ProductPage{}, forms.Single("q", forms.MsgRequired)
	}
	from, limit := util.Calculate(page, size)
	out := ProductPage{Page: from/limit + 1, Size: limit}

	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, from, limit)
		if err == nil {
			out.Items, out.Total = items, total
			return out, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "error", err)
	}

	all, err := s.Repo.FindByCodeOrNameContaining(ctx, q, models.SortNameAsc)
	if err != nil {
		return ProductPage{}, err
	}
	out.Total = int64(len(all))
	if from < len(all) {
		out.Items = all[from:min(from+limit, len(all))]
	}
	return out, nil
}

func (s *CatalogService) Create(ctx context.Context, p access.Principal, in forms.ProductInput) (models.Product, error) {
	if err := requirePermission(p, access.AddProduct); err != nil {
		return models.Product{}, err
	}

	prod := in.Model()
	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return models.Product{}, fmt.Errorf("%w: %w", ErrConflict, forms.Single("sku", "Product with this Sku already exists."))
		}
		return models.Product{}, err
	}

	s.reindex(ctx, prod)
	s.publish(ctx, p, events.ProductCreated, prod)
	return prod, nil
}

func (s *CatalogService) Patch(ctx context.Context, p access.Principal, id uint, patch forms.ProductPatch) (models.Product, error) {
	if err := requirePermission(p, access.ChangeProduct); err != nil {
		return models.Product{}, err
	}
	if err := patch.Validate(); err != nil {
		return models.Product{}, err
	}

	prod, err := s.Get(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	patch.Apply(&prod)
	if err := s.Repo.UpdateProduct(ctx, &prod); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Product{}, fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return models.Product{}, err
	}

	s.reindex(ctx, prod)
	s.publish(ctx, p, events.ProductUpdated, prod)
	return prod, nil
}

func (s *CatalogService) Delete(ctx context.Context, p access.Principal, id uint) error {
	if err := requirePermission(p, access.DeleteProduct); err != nil {
		return err
	}
	prod, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("product %d: %w", id, ErrNotFound)
		}
		return err
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, p, events.ProductDeleted, prod)
	return nil
}

func (s *CatalogService) reindex(ctx context.Context, prod models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, prod); err != nil {
		logging.FromContext(ctx).Warn("search_index_error", "product_id", prod.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, p access.Principal, typ string, prod models.Product) {
	publish(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(prod.ID), 10), events.Event{
		Type:    typ,
		ActorID: p.UserID,
		Payload: prod,
	})
}

// require checks p against permission. Anonymous callers get ErrUnauthenticated.
func requirePermission(p access.Principal, permission string) error {
	if !p.Authenticated() {
		return fmt.Errorf("%s: %w", permission, ErrUnauthenticated)
	}
	if !access.Allowed(p, permission) {
		return fmt.Errorf("%s lacks %s: %w", p, permission, ErrPermissionDenied)
	}
	return nil
}

// publish is best effort; failures are only logged.
func publish(ctx context.Context, pub events.Publisher, topic, key string, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "type", ev.Type, "error", err)
	}
}
