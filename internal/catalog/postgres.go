// Package catalog provides the plan catalog backends used by the recommender:
// Postgres, Elasticsearch, an in-memory list and a Redis read-through cache.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"
	"ichra-workers/internal/models"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "ichra-workers/catalog"

const findActivePlansQuery = `
	SELECT id, carrier_name, plan_name, plan_type, metal_tier, state, zip_codes,
	       monthly_premium, deductible, oop_maximum,
	       pcp_copay, specialist_copay, er_copay, urgent_care_copay, generic_rx_copay,
	       network_type, network_size, hsa_eligible, providers, is_active
	FROM insurance_plans
	WHERE is_active = TRUE AND state = $1 AND $2 = ANY(zip_codes)
	ORDER BY catalog_position
	LIMIT $3`

// PostgresRepository reads plans from the insurance_plans table.
type PostgresRepository struct {
	db         *sql.DB
	maxResults int
	logger     logger.Logger
}

func NewPostgresRepository(db *sql.DB, maxResults int, log logger.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:         db,
		maxResults: maxResults,
		logger:     log.WithFields(map[string]interface{}{"backend": "postgres"}),
	}
}

func (r *PostgresRepository) Name() string { return "postgres" }

// FindActivePlans returns active plans for state/zip in catalog order.
func (r *PostgresRepository) FindActivePlans(ctx context.Context, state, zipCode string) ([]models.Plan, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "catalog.postgres.find")
	span.SetAttributes(attribute.String("state", state), attribute.String("zip", zipCode))
	defer span.End()

	timer := prometheus.NewTimer(metrics.CatalogQueryDuration.WithLabelValues(r.Name()))
	defer timer.ObserveDuration()

	rows, err := r.db.QueryContext(ctx, findActivePlansQuery, state, zipCode, r.maxResults)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []models.Plan
	for rows.Next() {
		var p models.Plan
		if err := rows.Scan(
			&p.ID, &p.CarrierName, &p.PlanName, &p.PlanType, &p.MetalTier, &p.State, pq.Array(&p.ZipCodes),
			&p.MonthlyPremium, &p.Deductible, &p.OOPMaximum,
			&p.PCPCopay, &p.SpecialistCopay, &p.ERCopay, &p.UrgentCareCopay, &p.GenericRxCopay,
			&p.NetworkType, &p.NetworkSize, &p.HSAEligible, pq.Array(&p.Providers), &p.IsActive,
		); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}

	r.logger.Debug("plans loaded", map[string]interface{}{
		"state":   state,
		"zipCode": zipCode,
		"count":   len(plans),
	})

	return plans, nil
}
