package models

import "time"

// Property type constants
const (
	PropertyTypeSale = "sale"
	PropertyTypeRent = "rent"
)

// Property status constants
const (
	PropertyStatusAvailable = "available"
	PropertyStatusSold      = "sold"
)

// Locations lists the zones offered by the property form
var Locations = []string{
	"المنطقة الأولى",
	"المنطقة الثالثة",
	"المنطقة الخامسة",
	"المنطقة السابعة",
	"حي الزيتون",
	"دار مصر",
}

// Property represents a listing held in the back office.
// ID and CreatedAt are assigned by the remote service.
type Property struct {
	ID        int64      `json:"id,omitempty"`
	Title     string     `json:"title"`
	Price     float64    `json:"price"`
	Area      float64    `json:"area"`
	Location  string     `json:"location"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	DateAdded Date       `json:"date_added"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// PropertyInsert holds the fields persisted when a property is created
type PropertyInsert struct {
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Area      float64 `json:"area"`
	Location  string  `json:"location"`
	Type      string  `json:"type"`
	Status    string  `json:"status"`
	DateAdded Date    `json:"date_added"`
}

// InsertRow returns the persisted subset of the property
func (p *Property) InsertRow() *PropertyInsert {
	return &PropertyInsert{
		Title:     p.Title,
		Price:     p.Price,
		Area:      p.Area,
		Location:  p.Location,
		Type:      p.Type,
		Status:    p.Status,
		DateAdded: p.DateAdded,
	}
}

// IsForSale reports whether the property counts towards portfolio value
func (p *Property) IsForSale() bool {
	return p.Type == PropertyTypeSale
}

// IsAvailable reports whether the property is still on the market
func (p *Property) IsAvailable() bool {
	return p.Status == PropertyStatusAvailable
}
