package models

// InputErrorResponse is returned when the request never reaches the
// pipeline: missing url (with a usage hint) or an unparseable body.
type InputErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Usage   string `json:"usage,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Engine  string `json:"engine"`
	Version string `json:"version"`
}
