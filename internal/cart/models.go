package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/impresiones-magicas/storefront/internal/catalog"
	"github.com/impresiones-magicas/storefront/internal/customize"
)

// Cart mirrors the backend's cart document. The backend is authoritative;
// this is a read-through snapshot replaced wholesale after each mutation.
type Cart struct {
	ID        string    `json:"id"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// Item is a cart line. Customization is present only for personalized
// products.
type Item struct {
	ID            string                   `json:"id"`
	Quantity      int                      `json:"quantity"`
	Product       catalog.Product          `json:"product"`
	Customization *customize.Customization `json:"customization,omitempty"`
}

// ItemCount is the sum of line quantities, not the number of lines.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	var total int
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// Subtotal sums price times quantity across all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// FindItem returns the line with the given id, or nil.
func (c *Cart) FindItem(itemID string) *Item {
	if c == nil {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}
