package domain

// Cart is a shopper's cart, scoped to exactly one vendor. An empty cart does
// not exist as a value: when the last line is removed the cart is deleted
// from storage, so every Cart in circulation has at least one line.
type Cart struct {
	VendorID   int64      `json:"vendorId"`
	VendorName string     `json:"vendorName"`
	Items      []CartLine `json:"items"`
}

// CartLine is one product entry in the cart with its own quantity.
type CartLine struct {
	ProductID   int64    `json:"productId"`
	VendorID    int64    `json:"vendorId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	UnitPrice   float64  `json:"unitPrice"`
	Images      []string `json:"images"`
	CategoryID  *int64   `json:"categoryId"`
	Quantity    int      `json:"quantity"`
}

// TotalItems returns the sum of quantities across all lines.
func (c *Cart) TotalItems() int {
	var count int
	for _, line := range c.Items {
		count += line.Quantity
	}
	return count
}

// TotalPrice returns the sum of unit price times quantity across all lines.
func (c *Cart) TotalPrice() float64 {
	var total float64
	for _, line := range c.Items {
		total += line.UnitPrice * float64(line.Quantity)
	}
	return total
}

// FindLine returns the index of the line for the given product, or -1.
func (c *Cart) FindLine(productID int64) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Valid reports whether the cart honors its invariants: at least one line,
// every line scoped to the cart's vendor, and every quantity at least 1.
// Persisted data failing this check is treated as corrupt.
func (c *Cart) Valid() bool {
	if c == nil || len(c.Items) == 0 {
		return false
	}
	for _, line := range c.Items {
		if line.VendorID != c.VendorID || line.Quantity < 1 {
			return false
		}
	}
	return true
}

// PendingItem is the product retained while a vendor conflict awaits the
// shopper's decision. The line is fully built (quantity 1) so a "replace"
// resolution can apply it without revisiting the catalog.
type PendingItem struct {
	Line              CartLine `json:"line"`
	VendorID          int64    `json:"vendorId"`
	VendorName        string   `json:"vendorName"`
	CurrentVendorName string   `json:"currentVendorName"`
}
