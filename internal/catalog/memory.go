package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"ichra-workers/internal/models"
	"ichra-workers/internal/recommendation"
)

// MemoryRepository serves a fixed plan list, in list order.
type MemoryRepository struct {
	plans []models.Plan
}

func NewMemoryRepository(plans []models.Plan) *MemoryRepository {
	return &MemoryRepository{plans: plans}
}

// LoadMemoryRepository reads a JSON array of plans.
func LoadMemoryRepository(r io.Reader) (*MemoryRepository, error) {
	var plans []models.Plan
	if err := json.NewDecoder(r).Decode(&plans); err != nil {
		return nil, fmt.Errorf("decode plans: %w", err)
	}
	return NewMemoryRepository(plans), nil
}

func (m *MemoryRepository) Name() string { return "memory" }

func (m *MemoryRepository) FindActivePlans(ctx context.Context, state, zipCode string) ([]models.Plan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []models.Plan
	for _, p := range m.plans {
		if p.IsCandidateFor(state, zipCode) {
			out = append(out, p)
		}
	}
	return out, nil
}

// BackendName reports the backend behind repo, for error classification and logs.
func BackendName(repo recommendation.PlanRepository) string {
	if named, ok := repo.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unknown"
}
