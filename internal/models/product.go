package models

// Product is the catalog entry referenced by orders. Catalog management
// lives outside this service; only the columns orders need are modelled.
type Product struct {
	BaseModel
	Name             string  `json:"name"`
	Slug             string  `gorm:"uniqueIndex" json:"slug"`
	Description      string  `json:"description"`
	Price            float64 `json:"price"`
	Quantity         int     `json:"quantity"`
	Shipping         bool    `json:"shipping"`
	Photo            []byte  `json:"-"`
	PhotoContentType string  `json:"-"`
}

// ProductPublicColumns are the product columns safe to load alongside
// orders; the binary photo is left out.
var ProductPublicColumns = []string{
	"id", "created_at", "updated_at", "name", "slug", "description", "price", "quantity", "shipping",
}
