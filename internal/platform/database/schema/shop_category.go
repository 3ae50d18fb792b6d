package schema

// ShopCategoryTable represents the 'shop.category' table
type ShopCategoryTable struct {
	Table     string
	ID        string
	ParentID  string
	Name      string
	Slug      string
	SortOrder string
	CreatedAt string
}

// ShopCategory is the schema definition for shop.category
var ShopCategory = ShopCategoryTable{
	Table:     "shop.category",
	ID:        "id",
	ParentID:  "parentid",
	Name:      "name",
	Slug:      "slug",
	SortOrder: "sortorder",
	CreatedAt: "createdat",
}

func (t ShopCategoryTable) Columns() []string {
	return []string{t.ID, t.ParentID, t.Name, t.Slug, t.SortOrder, t.CreatedAt}
}
