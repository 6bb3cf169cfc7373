package model

// Procedure is immutable reference data provisioned at first start.
type Procedure struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Duration    float64 `json:"duration"` // hours, may be fractional (1.5)
	Description string  `json:"description"`
}
