package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/snakeoil/internal/access"
	"github.com/Skotchmaster/snakeoil/internal/events"
	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/models"
)

func names(ps []models.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestDefaultViewSortsByName(t *testing.T) {
	f := newFixture(t)
	f.seedDemo(t)

	got, err := f.catalog.DefaultView(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Clear snake oil", "Potent snake oil", "Thick snake oil", "Turbid snake oil"}, names(got))
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.seedDemo(t)
	ctx := context.Background()

	got, err := f.catalog.Search(ctx, forms.Search{Query: "T", Sort: models.SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Potent snake oil", "Thick snake oil", "Turbid snake oil"}, names(got))

	got, err = f.catalog.Search(ctx, forms.Search{Query: "sku001", Sort: models.SortNameAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Clear snake oil"}, names(got))

	_, err = f.catalog.Search(ctx, forms.Search{Sort: "stock"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSearchMatchesEverySubstring(t *testing.T) {
	f := newFixture(t)
	demo := f.seedDemo(t)
	ctx := context.Background()

	for _, p := range demo {
		for _, field := range []string{p.Code, p.Name} {
			for i := 0; i < len(field); i++ {
				for j := i + 1; j <= len(field); j++ {
					q := field[i:j]
					got, err := f.catalog.Search(ctx, forms.Search{Query: q, Sort: models.SortNameAsc})
					require.NoError(t, err)
					assert.Contains(t, names(got), p.Name, "query %q", q)
				}
			}
		}
	}
}

func TestSortOrdersAreTotal(t *testing.T) {
	f := newFixture(t)
	f.seedDemo(t)
	ctx := context.Background()

	for _, key := range []models.SortKey{models.SortNameAsc, models.SortNameDesc, models.SortPriceAsc, models.SortPriceDesc} {
		got, err := f.catalog.Search(ctx, forms.Search{Sort: key})
		require.NoError(t, err)
		require.Len(t, got, 4)
		for i := 1; i < len(got); i++ {
			a, b := got[i-1], got[i]
			var c int
			column, desc := key.Column()
			if column == "price" {
				c = a.Price.Cmp(b.Price)
			} else if a.Name < b.Name {
				c = -1
			} else if a.Name > b.Name {
				c = 1
			}
			if desc {
				c = -c
			}
			assert.LessOrEqual(t, c, 0, "%s: %s before %s", key, a.Name, b.Name)
		}
	}
}

func TestListForManagement(t *testing.T) {
	f := newFixture(t)
	demo := f.seedDemo(t)
	ctx := context.Background()

	_, err := f.catalog.ListForManagement(ctx, customer)
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.catalog.ListForManagement(ctx, access.Anonymous())
	require.ErrorIs(t, err, ErrUnauthenticated)

	price := decimal.RequireFromString("12.99")
	_, err = f.catalog.Patch(ctx, staff, demo["SKU002"].ID, forms.ProductPatch{Price: &price})
	require.NoError(t, err)

	got, err := f.catalog.ListForManagement(ctx, manager)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "SKU002", got[0].Code)
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := forms.ProductInput{
		Code:        "SKU005",
		Name:        "Dilute snake oil",
		Description: "Mostly water.",
		Price:       decimal.RequireFromString("4.50"),
		NumInStock:  12,
	}

	_, err := f.catalog.Create(ctx, customer, in)
	require.ErrorIs(t, err, ErrPermissionDenied)

	prod, err := f.catalog.Create(ctx, manager, in)
	require.NoError(t, err)
	assert.NotZero(t, prod.ID)

	_, err = f.catalog.Create(ctx, manager, in)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, err, ErrValidation)
	fe, ok := forms.Fields(err)
	require.True(t, ok)
	assert.True(t, fe.Has("sku"))

	rec := f.events.Events()
	require.Len(t, rec, 1)
	assert.Equal(t, events.TopicProducts, rec[0].Topic)
	assert.Equal(t, events.ProductCreated, rec[0].Event.Type)
	assert.Equal(t, manager.UserID, rec[0].Event.ActorID)
}

func TestPatchAndDelete(t *testing.T) {
	f := newFixture(t)
	demo := f.seedDemo(t)
	ctx := context.Background()
	id := demo["SKU003"].ID

	stock := 40
	_, err := f.catalog.Patch(ctx, manager, id, forms.ProductPatch{NumInStock: &stock})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.catalog.Patch(ctx, staff, id, forms.ProductPatch{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.catalog.Patch(ctx, staff, 9999, forms.ProductPatch{NumInStock: &stock})
	require.ErrorIs(t, err, ErrNotFound)

	got, err := f.catalog.Patch(ctx, staff, id, forms.ProductPatch{NumInStock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 40, got.NumInStock)
	assert.Equal(t, "Thick snake oil", got.Name)

	require.ErrorIs(t, f.catalog.Delete(ctx, manager, id), ErrPermissionDenied)
	require.NoError(t, f.catalog.Delete(ctx, staff, id))
	_, err = f.catalog.Get(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, f.catalog.Delete(ctx, staff, id), ErrNotFound)

	assert.Equal(t, []string{events.ProductUpdated, events.ProductDeleted}, f.events.Types())
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.seedDemo(t)

	page, err := f.catalog.List(context.Background(), 2, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Size)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "SKU004", page.Items[0].Code)
}

type fakeIndex struct {
	indexed []uint
	deleted []uint
	hits    []models.Product
	err     error

	// overrides err for DeleteProduct
	deleteErr error
}

func (f *fakeIndex) IndexProduct(_ context.Context, p models.Product) error {
	f.indexed = append(f.indexed, p.ID)
	return f.err
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uint) error {
	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (int64, []models.Product, error) {
	if f.err != nil {
		return 0, nil, f.err
	}
	return int64(len(f.hits)), f.hits, nil
}

func TestFullTextUsesIndex(t *testing.T) {
	f := newFixture(t)
	demo := f.seedDemo(t)
	idx := &fakeIndex{hits: []models.Product{demo["SKU004"]}}
	f.catalog.Index = idx
	ctx := context.Background()

	page, err := f.catalog.FullText(ctx, "bubbling", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, "SKU004", page.Items[0].Code)

	_, err = f.catalog.FullText(ctx, "", 1, 10)
	require.ErrorIs(t, err, ErrValidation)

	stock := 1
	_, err = f.catalog.Patch(ctx, staff, demo["SKU001"].ID, forms.ProductPatch{NumInStock: &stock})
	require.NoError(t, err)
	require.NoError(t, f.catalog.Delete(ctx, staff, demo["SKU002"].ID))
	assert.Equal(t, []uint{demo["SKU001"].ID}, idx.indexed)
	assert.Equal(t, []uint{demo["SKU002"].ID}, idx.deleted)
}

func TestFullTextFallsBackToSubstringSearch(t *testing.T) {
	f := newFixture(t)
	f.seedDemo(t)
	ctx := context.Background()

	page, err := f.catalog.FullText(ctx, "snake", 2, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Total)
	assert.Equal(t, []string{"Turbid snake oil"}, names(page.Items))

	f.catalog.Index = &fakeIndex{err: errors.New("es down")}
	page, err = f.catalog.FullText(ctx, "thick", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Thick snake oil"}, names(page.Items))
}
