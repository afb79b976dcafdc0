package dto

// HealthResponse is returned by the readiness check.
type HealthResponse struct {
	Status string `json:"status"`
}
