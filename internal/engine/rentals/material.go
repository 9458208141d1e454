package rentals

import "fmt"

// Material is a rentable catalog item, stored in the organization's tenant
// database.
type Material struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category,omitempty"`
	SerialNumber  string `json:"serial_number,omitempty"`
	DailyRateCent int64  `json:"daily_rate_cents"`
	Condition     string `json:"condition"`
	Status        string `json:"status"`
	CreatedBy     string `json:"created_by"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}

// Material statuses over the rental lifecycle.
const (
	MaterialStatusAvailable = "available"
	MaterialStatusLoaned    = "loaned"
	MaterialStatusRetired   = "retired"
)

func ValidateMaterial(m *Material) error {
	if m.Name == "" {
		return fmt.Errorf("material name is required")
	}
	if m.DailyRateCent < 0 {
		return fmt.Errorf("daily rate must not be negative")
	}
	return nil
}
