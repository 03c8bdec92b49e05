package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
// Field names follow the remote table columns.
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	CategoryID    string          `json:"category_id" db:"category_id"`
	SupplierID    string          `json:"supplier_id" db:"supplier_id"`
	StockQuantity int             `json:"stock_quantity" db:"stock_quantity"`
	ShelfPrice    decimal.Decimal `json:"shelf_price" db:"shelf_price"`
	SellingPrice  decimal.Decimal `json:"selling_price" db:"selling_price"`
	Images        []string        `json:"images" db:"images"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductDetails is a product joined with the names of the category and
// supplier it references
type ProductDetails struct {
	Product
	CategoryName string `json:"categoryName"`
	SupplierName string `json:"supplierName"`
}

// UnknownReference is displayed in place of a dangling category or supplier
const UnknownReference = "unknown"

// Category represents a product category
type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Clone returns a copy of the product that shares no slices with p
func (p Product) Clone() Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}
