package domain

// LineItem is a purchasable line of an order, reduced to the fields the
// assistant needs. Prices are in the smallest currency unit.
type LineItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
	Total     int    `json:"total"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Variant   string `json:"variant,omitempty"`
}

// Customer identifies the buyer of the order.
type Customer struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// ReturnReason is an admin-configured reason a customer may return an item.
type ReturnReason struct {
	ID    string `json:"id"`
	Value string `json:"value,omitempty"`
	Label string `json:"label"`
}

// ShippingOption is a return shipping method available in the order's region.
type ShippingOption struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RegionID string `json:"region_id,omitempty"`
	IsReturn bool   `json:"is_return,omitempty"`
	Amount   int    `json:"amount,omitempty"`
}

// OrderContext is the read-only snapshot of order, reason and shipping data a
// conversation is grounded in. It is supplied once per conversation and never
// mutated by the assistant.
type OrderContext struct {
	OrderID         string           `json:"order_id,omitempty"`
	Items           []LineItem       `json:"items"`
	Customer        Customer         `json:"customer"`
	ReturnReasons   []ReturnReason   `json:"return_reasons"`
	ShippingOptions []ShippingOption `json:"shipping_options"`
	CurrencyCode    string           `json:"currency_code"`
}

// Item returns the line item with the given id, or nil.
func (c *OrderContext) Item(id string) *LineItem {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

// ReturnReason returns the return reason with the given id, or nil.
func (c *OrderContext) ReturnReason(id string) *ReturnReason {
	for i := range c.ReturnReasons {
		if c.ReturnReasons[i].ID == id {
			return &c.ReturnReasons[i]
		}
	}
	return nil
}

// ShippingOption returns the shipping option with the given id, or nil.
func (c *OrderContext) ShippingOption(id string) *ShippingOption {
	for i := range c.ShippingOptions {
		if c.ShippingOptions[i].ID == id {
			return &c.ShippingOptions[i]
		}
	}
	return nil
}
