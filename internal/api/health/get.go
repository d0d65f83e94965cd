package health

import "github.com/gomantics/reposcout/internal/api/web"

// ServiceName is reported by the health check.
const ServiceName = "reposcout repository analyzer API"

// GetResponse is the health check response
type GetResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// Get handles GET /api/health
func Get(c web.Context) error {
	return c.OK(GetResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: web.Timestamp(),
	})
}
