package transport

import (
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/snakeoil/internal/forms"
	"github.com/Skotchmaster/snakeoil/internal/models"
	"github.com/Skotchmaster/snakeoil/internal/util"
)

type AddToCartResponse struct {
	Product       models.Product `json:"product"`
	NumItemsAdded int            `json:"num_items_added"`
	CartSummary   string         `json:"cart_summary"`
}

type FieldErrorsResponse struct {
	Errors forms.FieldErrors `json:"errors"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ProductListResponse struct {
	Data []models.Product `json:"data"`
	Meta util.Meta        `json:"meta"`
}

type CartLine struct {
	Product   models.Product  `json:"product"`
	NumItems  int             `json:"num_items"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Lines      []CartLine      `json:"lines"`
	NumItems   int             `json:"num_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Summary    string          `json:"cart_summary"`
}
