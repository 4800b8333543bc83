package models

// Stats holds the dashboard aggregates
type Stats struct {
	TotalProperties int     `json:"totalProperties"`
	Available       int     `json:"available"`
	Clients         int     `json:"clients"`
	TotalValue      float64 `json:"totalValue"`
}

// ComputeStats aggregates the dashboard figures. Rentals do not count
// towards the total value.
func ComputeStats(properties []*Property, clients int) Stats {
	stats := Stats{
		TotalProperties: len(properties),
		Clients:         clients,
	}
	for _, p := range properties {
		if p.IsAvailable() {
			stats.Available++
		}
		if p.IsForSale() {
			stats.TotalValue += p.Price
		}
	}
	return stats
}

// View names understood by the dashboard
const (
	ViewDashboard  = "dashboard"
	ViewProperties = "properties"
	ViewClients    = "clients"
	ViewAITools    = "ai-tools"
)
