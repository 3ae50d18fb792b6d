package schema

// ShopProductTable represents the 'shop.product' table
type ShopProductTable struct {
	Table       string
	ID          string
	CategoryID  string
	Name        string
	Slug        string
	Description string
	PriceCents  string
	Currency    string
	Stock       string
	Status      string
	ImageURLs   string
	CreatedAt   string
	UpdatedAt   string
}

// ShopProduct is the schema definition for shop.product
var ShopProduct = ShopProductTable{
	Table:       "shop.product",
	ID:          "id",
	CategoryID:  "categoryid",
	Name:        "name",
	Slug:        "slug",
	Description: "description",
	PriceCents:  "pricecents",
	Currency:    "currency",
	Stock:       "stock",
	Status:      "status",
	ImageURLs:   "imageurls",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t ShopProductTable) Columns() []string {
	return []string{
		t.ID, t.CategoryID, t.Name, t.Slug, t.Description, t.PriceCents,
		t.Currency, t.Stock, t.Status, t.ImageURLs, t.CreatedAt, t.UpdatedAt,
	}
}
