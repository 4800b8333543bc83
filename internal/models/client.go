package models

import "time"

// Client interest constants
const (
	InterestApartment = "apartment"
	InterestVilla     = "villa"
	InterestLand      = "land"
)

// Lead temperature constants
const (
	LeadHot  = "hot"
	LeadWarm = "warm"
	LeadCold = "cold"
)

// Client represents a lead registered by an agent
type Client struct {
	ID        int64      `json:"id,omitempty"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Budget    float64    `json:"budget"`
	Interest  string     `json:"interest"`
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// ClientInsert holds the fields persisted when a client is created
type ClientInsert struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Budget   float64 `json:"budget"`
	Interest string  `json:"interest"`
	Status   string  `json:"status"`
}

// InsertRow returns the persisted subset of the client
func (c *Client) InsertRow() *ClientInsert {
	return &ClientInsert{
		Name:     c.Name,
		Phone:    c.Phone,
		Budget:   c.Budget,
		Interest: c.Interest,
		Status:   c.Status,
	}
}

// Initials returns the first two characters of the client name
func (c *Client) Initials() string {
	r := []rune(c.Name)
	if len(r) > 2 {
		r = r[:2]
	}
	return string(r)
}
