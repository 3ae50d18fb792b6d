package schema

// ShopOrderTable represents the 'shop.order' table
type ShopOrderTable struct {
	Table           string
	ID              string
	OrderNumber     string
	UserID          string
	Status          string
	SubtotalCents   string
	ShippingCents   string
	TotalCents      string
	Currency        string
	ShippingAddress string
	CreatedAt       string
	UpdatedAt       string
}

// ShopOrder is the schema definition for shop.order
var ShopOrder = ShopOrderTable{
	Table:           `shop."order"`,
	ID:              "id",
	OrderNumber:     "ordernumber",
	UserID:          "userid",
	Status:          "status",
	SubtotalCents:   "subtotalcents",
	ShippingCents:   "shippingcents",
	TotalCents:      "totalcents",
	Currency:        "currency",
	ShippingAddress: "shippingaddress",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
}

// Columns returns all standard column names
func (t ShopOrderTable) Columns() []string {
	return []string{
		t.ID, t.OrderNumber, t.UserID, t.Status, t.SubtotalCents,
		t.ShippingCents, t.TotalCents, t.Currency, t.ShippingAddress,
		t.CreatedAt, t.UpdatedAt,
	}
}
