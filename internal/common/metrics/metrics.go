package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation run outcomes.
const (
	OutcomeRecommended     = "recommended"
	OutcomeNoQualifiedPlan = "no_qualified_plan"
	OutcomeNoEligiblePlans = "no_eligible_plans"
)

// Catalog cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	RecommendationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_runs_total",
			Help: "Recommendation runs by outcome",
		},
		[]string{"outcome"},
	)

	PlansScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_plans_scored_total",
			Help: "Total number of profile/plan pairs scored",
		},
	)

	PlanTotalScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_plan_total_score",
			Help:    "Distribution of weighted plan scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	CatalogCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "Plan catalog cache lookups by result",
		},
		[]string{"result"},
	)

	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "catalog_query_duration_seconds",
			Help: "Duration of plan catalog queries in seconds",
		},
		[]string{"backend"},
	)
)
