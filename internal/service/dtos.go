package service

import (
	"strings"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// CreatePropertyRequest represents a submitted property form
type CreatePropertyRequest struct {
	Title    string   `json:"title"`
	Price    *float64 `json:"price"`
	Area     *float64 `json:"area"`
	Location string   `json:"location"`
	Type     string   `json:"type"`
	Status   string   `json:"status"`
}

// Validate checks that the required fields are present.
// Nothing else is checked; the remote service owns the schema.
func (r *CreatePropertyRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return models.ErrInvalidInput("title is required")
	}
	if r.Price == nil {
		return models.ErrInvalidInput("price is required")
	}
	if r.Area == nil {
		return models.ErrInvalidInput("area is required")
	}
	return nil
}

// ToProperty applies form defaults and builds the property
func (r *CreatePropertyRequest) ToProperty() *models.Property {
	p := &models.Property{
		Title:    r.Title,
		Location: r.Location,
		Type:     r.Type,
		Status:   r.Status,
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Area != nil {
		p.Area = *r.Area
	}
	if p.Location == "" {
		p.Location = models.Locations[0]
	}
	if p.Type == "" {
		p.Type = models.PropertyTypeSale
	}
	if p.Status == "" {
		p.Status = models.PropertyStatusAvailable
	}
	return p
}

// CreateClientRequest represents a submitted client form
type CreateClientRequest struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Budget   *float64 `json:"budget,omitempty"`
	Interest string   `json:"interest"`
	Status   string   `json:"status"`
}

// Validate checks that the required fields are present
func (r *CreateClientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return models.ErrInvalidInput("name is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return models.ErrInvalidInput("phone is required")
	}
	return nil
}

// ToClient applies form defaults and builds the client.
// A missing budget is stored as 0.
func (r *CreateClientRequest) ToClient() *models.Client {
	c := &models.Client{
		Name:     r.Name,
		Phone:    r.Phone,
		Interest: r.Interest,
		Status:   r.Status,
	}
	if r.Budget != nil {
		c.Budget = *r.Budget
	}
	if c.Interest == "" {
		c.Interest = models.InterestApartment
	}
	if c.Status == "" {
		c.Status = models.LeadHot
	}
	return c
}

// GenerateRequest represents a request for ad copy
type GenerateRequest struct {
	Details string `json:"details"`
}

// GenerateResult carries generated ad copy
type GenerateResult struct {
	Text string `json:"text"`
}
