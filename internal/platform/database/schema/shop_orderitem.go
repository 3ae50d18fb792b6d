package schema

// ShopOrderItemTable represents the 'shop.orderitem' table
type ShopOrderItemTable struct {
	Table          string
	ID             string
	OrderID        string
	ProductID      string
	ProductName    string
	UnitPriceCents string
	Quantity       string
	LineTotalCents string
}

// ShopOrderItem is the schema definition for shop.orderitem
var ShopOrderItem = ShopOrderItemTable{
	Table:          "shop.orderitem",
	ID:             "id",
	OrderID:        "orderid",
	ProductID:      "productid",
	ProductName:    "productname",
	UnitPriceCents: "unitpricecents",
	Quantity:       "quantity",
	LineTotalCents: "linetotalcents",
}

func (t ShopOrderItemTable) Columns() []string {
	return []string{t.ID, t.OrderID, t.ProductID, t.ProductName, t.UnitPriceCents, t.Quantity, t.LineTotalCents}
}
