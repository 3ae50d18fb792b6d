package schema

// ShopMediaTable represents the 'shop.media' table
type ShopMediaTable struct {
	Table       string
	ID          string
	OwnerID     string
	FileName    string
	ContentType string
	SizeBytes   string
	URL         string
	CreatedAt   string
}

// ShopMedia is the schema definition for shop.media
var ShopMedia = ShopMediaTable{
	Table:       "shop.media",
	ID:          "id",
	OwnerID:     "ownerid",
	FileName:    "filename",
	ContentType: "contenttype",
	SizeBytes:   "sizebytes",
	URL:         "url",
	CreatedAt:   "createdat",
}

func (t ShopMediaTable) Columns() []string {
	return []string{t.ID, t.OwnerID, t.FileName, t.ContentType, t.SizeBytes, t.URL, t.CreatedAt}
}
