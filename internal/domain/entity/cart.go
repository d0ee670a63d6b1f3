// Package entity contains the core business objects of the project.
package entity

// CartLine represents one product row in a guest cart. A line never exists
// with a quantity below one; driving the quantity to zero removes the line.
type CartLine struct {
	LineID    string `json:"line_id"`    // Server-assigned identifier for the cart line.
	ProductID string `json:"product_id"` // The product this line refers to, unique within a cart.
	Name      string `json:"name"`       // Product display name at the time of adding.
	UnitPrice int64  `json:"unit_price"` // Price per unit in rupees.
	Quantity  int    `json:"quantity"`   // Number of units, always >= 1.
}

// Total returns the line total (unit price times quantity).
func (l CartLine) Total() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart is the authoritative snapshot of a guest's shopping cart as last
// reported by the cart backend. Lines keep server insertion order and are
// keyed by product id. Subtotal, shipping and total are derived locally.
type Cart struct {
	GuestID        string     `json:"guest_id"`
	Lines          []CartLine `json:"lines"`
	Subtotal       int64      `json:"subtotal"`
	ShippingCharge int64      `json:"shipping_charge"`
	Total          int64      `json:"total"`
}

// ShippingPolicy computes the shipping charge as a pure function of the
// cart subtotal: free at or above the threshold, a flat fee below it.
type ShippingPolicy struct {
	FreeThreshold int64
	FlatFee       int64
}

// ChargeFor returns the shipping charge for the given subtotal. Nothing to
// ship costs nothing.
func (p ShippingPolicy) ChargeFor(subtotal int64) int64 {
	if subtotal == 0 || subtotal >= p.FreeThreshold {
		return 0
	}

	return p.FlatFee
}

// NewCart builds a cart snapshot from server-reported lines, deriving the
// money fields under the given shipping policy.
func NewCart(guestID string, lines []CartLine, policy ShippingPolicy) *Cart {
	var subtotal int64
	for _, line := range lines {
		subtotal += line.Total()
	}

	shipping := policy.ChargeFor(subtotal)

	return &Cart{
		GuestID:        guestID,
		Lines:          lines,
		Subtotal:       subtotal,
		ShippingCharge: shipping,
		Total:          subtotal + shipping,
	}
}

// EmptyCart returns an empty snapshot for the guest.
func EmptyCart(guestID string, policy ShippingPolicy) *Cart {
	return NewCart(guestID, nil, policy)
}

// Line returns the line for the product, or nil when absent.
func (c *Cart) Line(productID string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}

	return nil
}

// QuantityOf returns the quantity of the product, zero when not in the cart.
func (c *Cart) QuantityOf(productID string) int {
	if line := c.Line(productID); line != nil {
		return line.Quantity
	}

	return 0
}

// IsInCart reports whether the product has a line in the cart.
func (c *Cart) IsInCart(productID string) bool {
	return c.QuantityOf(productID) > 0
}

// ItemCount returns the total number of units across all lines.
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}

	return count
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// WithoutLine returns a copy of the cart with the product's line removed and
// the money fields recomputed. Used for the best-effort local fallback when
// the backend delete cannot be reached.
func (c *Cart) WithoutLine(productID string, policy ShippingPolicy) *Cart {
	lines := make([]CartLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.ProductID != productID {
			lines = append(lines, line)
		}
	}

	return NewCart(c.GuestID, lines, policy)
}
