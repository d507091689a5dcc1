// internal/workers/recommendation/fetch-eligible-plans/models.go
package fetcheligibleplans

import "ichra-workers/internal/models"

// Input carries either a full profile or just the location to search.
type Input struct {
	Profile *models.Profile `json:"profile,omitempty"`
	State   string          `json:"state,omitempty"`
	ZipCode string          `json:"zipCode,omitempty"`
}

type Output struct {
	Plans     []models.Plan `json:"plans"`
	PlanCount int           `json:"planCount"`
}

func (i *Input) location() (state, zipCode string) {
	if i.Profile != nil {
		return i.Profile.State, i.Profile.ZipCode
	}
	return i.State, i.ZipCode
}
