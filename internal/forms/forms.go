package forms

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/snakeoil/internal/models"
)

const (
	maxCodeLen   = 50
	maxNameLen   = 200
	priceDigits  = 8
	priceDecimal = 2

	// MaxQuantity bounds num_items in both directions.
	MaxQuantity = math.MaxInt32
)

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type Search struct {
	Query string
	Sort  models.SortKey
}

// DefaultSearch is what the shop page shows before any form is submitted.
func DefaultSearch() Search {
	return Search{Sort: models.SortNameAsc}
}

func ParseSearch(v url.Values) (Search, error) {
	fe := FieldErrors{}
	s := Search{Query: strings.TrimSpace(v.Get("search_string"))}

	raw := strings.TrimSpace(v.Get("sort_by"))
	switch {
	case raw == "":
		fe.Add("sort_by", MsgRequired)
	case !models.SortKey(raw).Valid():
		fe.Add("sort_by", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", raw))
	default:
		s.Sort = models.SortKey(raw)
	}

	if err := fe.Err(); err != nil {
		return Search{}, err
	}
	return s, nil
}

type AddToCart struct {
	ProductID uint
	Quantity  int
}

// ParseAddToCart checks well-formedness only. Bounds on Quantity belong to the
// cart's quantity policy.
func ParseAddToCart(v url.Values) (AddToCart, error) {
	fe := FieldErrors{}
	var out AddToCart

	pk := strings.TrimSpace(v.Get("pk"))
	if pk == "" {
		fe.Add("pk", MsgRequired)
	} else if n, err := strconv.ParseInt(pk, 10, 64); err != nil {
		fe.Add("pk", MsgWholeNum)
	} else if n < 1 {
		fe.Add("pk", MsgPositive)
	} else {
		out.ProductID = uint(n)
	}

	out.Quantity = 1
	if raw := strings.TrimSpace(v.Get("num_items")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		switch {
		case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(raw, "-"):
			fe.Add("num_items", MsgMaxQuantity)
		case errors.Is(err, strconv.ErrRange):
			fe.Add("num_items", MsgMinQuantity)
		case err != nil:
			fe.Add("num_items", MsgWholeNum)
		case n > MaxQuantity:
			fe.Add("num_items", MsgMaxQuantity)
		case n < -MaxQuantity:
			fe.Add("num_items", MsgMinQuantity)
		default:
			out.Quantity = int(n)
		}
	}

	if err := fe.Err(); err != nil {
		return AddToCart{}, err
	}
	return out, nil
}

type ProductInput struct {
	Code        string
	Name        string
	Description string
	Price       decimal.Decimal
	NumInStock  int
}

func (p ProductInput) Model() models.Product {
	return models.Product{
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		NumInStock:  p.NumInStock,
	}
}

func ParseProduct(v url.Values) (ProductInput, error) {
	fe := FieldErrors{}
	in := ProductInput{
		Code:        strings.TrimSpace(v.Get("sku")),
		Name:        strings.TrimSpace(v.Get("name")),
		Description: strings.TrimSpace(v.Get("description")),
	}

	checkCode(fe, in.Code)
	checkName(fe, in.Name)
	if in.Description == "" {
		fe.Add("description", MsgRequired)
	}

	if raw := strings.TrimSpace(v.Get("price")); raw == "" {
		fe.Add("price", MsgRequired)
	} else if d, err := decimal.NewFromString(raw); err != nil {
		fe.Add("price", MsgNumber)
	} else {
		checkPrice(fe, d)
		in.Price = d
	}

	if raw := strings.TrimSpace(v.Get("num_in_stock")); raw == "" {
		fe.Add("num_in_stock", MsgRequired)
	} else if n, err := strconv.Atoi(raw); err != nil {
		fe.Add("num_in_stock", MsgWholeNum)
	} else {
		checkStock(fe, n)
		in.NumInStock = n
	}

	if err := fe.Err(); err != nil {
		return ProductInput{}, err
	}
	return in, nil
}

// ProductPatch carries the fields of a partial update; nil means unchanged.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	NumInStock  *int             `json:"num_in_stock"`
}

func (p ProductPatch) Validate() error {
	fe := FieldErrors{}
	if p.Name == nil && p.Description == nil && p.Price == nil && p.NumInStock == nil {
		fe.Add("__all__", "Nothing to update.")
	}
	if p.Name != nil {
		checkName(fe, strings.TrimSpace(*p.Name))
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		fe.Add("description", MsgRequired)
	}
	if p.Price != nil {
		checkPrice(fe, *p.Price)
	}
	if p.NumInStock != nil {
		checkStock(fe, *p.NumInStock)
	}
	return fe.Err()
}

// Apply copies the set fields onto prod.
func (p ProductPatch) Apply(prod *models.Product) {
	if p.Name != nil {
		prod.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		prod.Description = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.NumInStock != nil {
		prod.NumInStock = *p.NumInStock
	}
}

func checkCode(fe FieldErrors, code string) {
	switch {
	case code == "":
		fe.Add("sku", MsgRequired)
	case len(code) > maxCodeLen:
		fe.Add("sku", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", maxCodeLen, len(code)))
	case !slugRe.MatchString(code):
		fe.Add("sku", "Enter a valid “slug” consisting of letters, numbers, underscores or hyphens.")
	}
}

func checkName(fe FieldErrors, name string) {
	switch {
	case name == "":
		fe.Add("name", MsgRequired)
	case len([]rune(name)) > maxNameLen:
		fe.Add("name", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", maxNameLen, len([]rune(name))))
	}
}

func checkPrice(fe FieldErrors, d decimal.Decimal) {
	if d.IsNegative() {
		fe.Add("price", "Ensure this value is greater than or equal to 0.")
		return
	}
	if -d.Exponent() > priceDecimal && !d.Equal(d.Truncate(priceDecimal)) {
		fe.Add("price", fmt.Sprintf("Ensure that there are no more than %d decimal places.", priceDecimal))
		return
	}
	limit := decimal.New(1, priceDigits-priceDecimal)
	if d.GreaterThanOrEqual(limit) {
		fe.Add("price", fmt.Sprintf("Ensure that there are no more than %d digits in total.", priceDigits))
	}
}

func checkStock(fe FieldErrors, n int) {
	if n < 0 {
		fe.Add("num_in_stock", MsgNonNegative)
	}
}
