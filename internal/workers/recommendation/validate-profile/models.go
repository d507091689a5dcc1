// internal/workers/recommendation/validate-profile/models.go
package validateprofile

import (
	"encoding/json"

	"ichra-workers/internal/common/validation"
	"ichra-workers/internal/models"
)

type Input struct {
	Profile json.RawMessage `json:"profile"`
}

type Output struct {
	IsValid          bool                         `json:"isValid"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
	Profile          *models.Profile              `json:"profile,omitempty"` // set only when valid
}
