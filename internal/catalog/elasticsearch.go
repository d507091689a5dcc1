package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"
	"ichra-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ElasticsearchRepository searches a plan index whose documents are
// models.Plan in its JSON form.
type ElasticsearchRepository struct {
	client     *elasticsearch.Client
	index      string
	maxResults int
	logger     logger.Logger
}

func NewElasticsearchRepository(client *elasticsearch.Client, index string, maxResults int, log logger.Logger) *ElasticsearchRepository {
	return &ElasticsearchRepository{
		client:     client,
		index:      index,
		maxResults: maxResults,
		logger:     log.WithFields(map[string]interface{}{"backend": "elasticsearch", "index": index}),
	}
}

func (r *ElasticsearchRepository) Name() string { return "elasticsearch" }

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Plan `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func buildPlanQuery(state, zipCode string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"isActive": true}},
					map[string]interface{}{"term": map[string]interface{}{"state": state}},
					map[string]interface{}{"term": map[string]interface{}{"zipCodes": zipCode}},
				},
			},
		},
		"sort": []interface{}{"_doc"},
	}
}

// FindActivePlans filters in the index and re-checks each hit locally, so
// a stale or loosely mapped index cannot leak ineligible plans.
func (r *ElasticsearchRepository) FindActivePlans(ctx context.Context, state, zipCode string) ([]models.Plan, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "catalog.elasticsearch.find")
	span.SetAttributes(attribute.String("state", state), attribute.String("zip", zipCode))
	defer span.End()

	timer := prometheus.NewTimer(metrics.CatalogQueryDuration.WithLabelValues(r.Name()))
	defer timer.ObserveDuration()

	body, err := json.Marshal(buildPlanQuery(state, zipCode))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	size := r.maxResults
	req := esapi.SearchRequest{
		Index: []string{r.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, r.client)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("search %s: %w", r.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search %s: %s", r.index, res.Status())
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	plans := make([]models.Plan, 0, len(decoded.Hits.Hits))
	dropped := 0
	for _, hit := range decoded.Hits.Hits {
		if !hit.Source.IsCandidateFor(state, zipCode) {
			dropped++
			continue
		}
		plans = append(plans, hit.Source)
	}

	if dropped > 0 {
		r.logger.Warn("dropped ineligible search hits", map[string]interface{}{
			"state":   state,
			"zipCode": zipCode,
			"dropped": dropped,
		})
	}

	return plans, nil
}
