package catalog

import (
	"github.com/shopspring/decimal"
)

// Product is the backend's catalog entry. Immutable from the storefront's
// side; admin mutations go through internal/admin. Price arrives as either a
// JSON string or number, which decimal handles natively.
type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Featured      bool            `json:"featured"`
	Images        []string        `json:"images"`
	CategoryID    string          `json:"categoryId,omitempty"`
	AverageRating *float64        `json:"averageRating,omitempty"`
	ReviewCount   *int            `json:"reviewCount,omitempty"`
}

// Category is a node in the backend's category tree. Depth is unconstrained
// here; the backend owns the hierarchy.
type Category struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Image       string     `json:"image,omitempty"`
	Featured    bool       `json:"featured"`
	ParentID    string     `json:"parentId,omitempty"`
	Children    []Category `json:"children,omitempty"`
}

// FindCategory walks a category tree depth-first for the given id.
func FindCategory(roots []Category, id string) *Category {
	for i := range roots {
		if roots[i].ID == id {
			return &roots[i]
		}
		if found := FindCategory(roots[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}
