// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ichra-workers/internal/catalog"
	"ichra-workers/internal/common/errors"
	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/models"
	"ichra-workers/internal/recommendation"

	fep "ichra-workers/internal/workers/recommendation/fetch-eligible-plans"
	gr "ichra-workers/internal/workers/recommendation/generate-recommendations"
	sp "ichra-workers/internal/workers/recommendation/score-plans"
	srs "ichra-workers/internal/workers/recommendation/send-recommendation-summary"
	sr "ichra-workers/internal/workers/recommendation/select-recommendations"
	vp "ichra-workers/internal/workers/recommendation/validate-profile"
)

const employeeProfile = `{
	"age": 35,
	"zipCode": "10001",
	"state": "NY",
	"coverageType": "individual",
	"ichraAllowance": 500,
	"medicalNeeds": "routine",
	"riskTolerance": "moderate",
	"preferredProviders": ["Mount Sinai"],
	"priorities": {"cost": 4, "coverage": 3, "network": 3, "flexibility": 2}
}`

func testCatalog() []models.Plan {
	return []models.Plan{
		{
			ID: "plan-ny-silver-ppo", CarrierName: "Empire Health", PlanName: "Silver PPO 1000",
			PlanType: models.PlanTypePPO, MetalTier: models.MetalSilver, State: "NY",
			ZipCodes: []string{"10001", "10002"}, MonthlyPremium: 450, Deductible: 1000, OOPMaximum: 4000,
			NetworkType: models.PlanTypePPO, NetworkSize: models.NetworkLarge,
			Providers: []string{"Mount Sinai"}, IsActive: true,
		},
		{
			ID: "plan-ny-bronze-hmo", CarrierName: "Metro Care", PlanName: "Bronze HMO 6000",
			PlanType: models.PlanTypeHMO, MetalTier: models.MetalBronze, State: "NY",
			ZipCodes: []string{"10001"}, MonthlyPremium: 320, Deductible: 6000, OOPMaximum: 8500,
			NetworkType: models.PlanTypeHMO, NetworkSize: models.NetworkMedium, IsActive: true,
		},
		{
			ID: "plan-ny-gold-epo", CarrierName: "Hudson Mutual", PlanName: "Gold EPO 500",
			PlanType: models.PlanTypeEPO, MetalTier: models.MetalGold, State: "NY",
			ZipCodes: []string{"10001"}, MonthlyPremium: 610, Deductible: 500, OOPMaximum: 3000,
			NetworkType: models.PlanTypeEPO, NetworkSize: models.NetworkLarge,
			Providers: []string{"Mount Sinai"}, IsActive: true,
		},
		{
			ID: "plan-ny-retired", CarrierName: "Empire Health", PlanName: "Legacy PPO",
			PlanType: models.PlanTypePPO, MetalTier: models.MetalSilver, State: "NY",
			ZipCodes: []string{"10001"}, MonthlyPremium: 200, Deductible: 500, OOPMaximum: 2000,
			NetworkType: models.PlanTypePPO, NetworkSize: models.NetworkLarge, IsActive: false,
		},
		{
			ID: "plan-nj-silver-ppo", CarrierName: "Garden State", PlanName: "Silver PPO",
			PlanType: models.PlanTypePPO, MetalTier: models.MetalSilver, State: "NJ",
			ZipCodes: []string{"07001"}, MonthlyPremium: 400, Deductible: 1500, OOPMaximum: 5000,
			NetworkType: models.PlanTypePPO, NetworkSize: models.NetworkLarge, IsActive: true,
		},
	}
}

// variables round-trips v through JSON the way Zeebe hands values between
// service tasks, then decodes it into out.
func variables(t *testing.T, v, out interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

type recordingEmail struct{ sent []*ses.SendEmailInput }

func (r *recordingEmail) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	r.sent = append(r.sent, in)
	return &ses.SendEmailOutput{}, nil
}

type noSMS struct{}

func (noSMS) Publish(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return &sns.PublishOutput{}, nil
}

type pipeline struct {
	validate *vp.Handler
	fetch    *fep.Handler
	score    *sp.Handler
	selectR  *sr.Handler
	generate *gr.Handler
	notify   *srs.Handler
	email    *recordingEmail
}

func newPipeline(t *testing.T, plans recommendation.PlanRepository) *pipeline {
	log := logger.NewTestLogger(t)
	email := &recordingEmail{}

	notifyCfg := srs.DefaultConfig()
	notifyCfg.EmailEnabled = true
	notifyCfg.FromEmail = "benefits@example.com"

	return &pipeline{
		validate: vp.NewHandler(vp.DefaultConfig(), log),
		fetch:    fep.NewHandler(fep.DefaultConfig(), plans, log),
		score:    sp.NewHandler(sp.DefaultConfig(), log),
		selectR:  sr.NewHandler(sr.DefaultConfig(), log),
		generate: gr.NewHandler(gr.DefaultConfig(), plans, log),
		notify:   srs.NewHandler(notifyCfg, email, noSMS{}, log),
		email:    email,
	}
}

// ==========================
// Step-by-step process
// ==========================

func TestRecommendationProcess_StepByStep(t *testing.T) {
	ctx := context.Background()
	p := newPipeline(t, catalog.NewMemoryRepository(testCatalog()))

	validated, err := p.validate.Execute(ctx, &vp.Input{Profile: json.RawMessage(employeeProfile)})
	require.NoError(t, err)
	require.True(t, validated.IsValid, "validation errors: %v", validated.ValidationErrors)

	var fetchIn fep.Input
	variables(t, map[string]interface{}{"profile": validated.Profile}, &fetchIn)
	fetched, err := p.fetch.Execute(ctx, &fetchIn)
	require.NoError(t, err)
	assert.Equal(t, 3, fetched.PlanCount, "inactive and out-of-state plans are filtered")

	var scoreIn sp.Input
	variables(t, map[string]interface{}{"profile": validated.Profile, "plans": fetched.Plans}, &scoreIn)
	scored, err := p.score.Execute(ctx, &scoreIn)
	require.NoError(t, err)
	require.Equal(t, 3, scored.PlanCount)
	for _, s := range scored.ScoredPlans {
		assert.GreaterOrEqual(t, s.TotalScore, 0.0)
		assert.LessOrEqual(t, s.TotalScore, 100.0)
	}

	var selectIn sr.Input
	variables(t, map[string]interface{}{"profile": validated.Profile, "scoredPlans": scored.ScoredPlans}, &selectIn)
	selected, err := p.selectR.Execute(ctx, &selectIn)
	require.NoError(t, err)
	require.True(t, selected.HasRecommendations)
	assert.LessOrEqual(t, selected.RecommendationCount, 2)

	for i, rec := range selected.Recommendations {
		assert.Equal(t, i+1, rec.Rank)
		assert.GreaterOrEqual(t, rec.TotalScore, 70.0)
		if i > 0 {
			assert.GreaterOrEqual(t, selected.Recommendations[i-1].TotalScore, rec.TotalScore)
		}
	}

	// The single-call worker must agree with the step-by-step chain.
	generated, err := p.generate.Execute(ctx, &gr.Input{Profile: validated.Profile})
	require.NoError(t, err)
	require.Equal(t, selected.RecommendationCount, generated.RecommendationCount)
	assert.Equal(t, 3, generated.EligiblePlanCount)
	for i := range generated.Recommendations {
		assert.Equal(t, selected.Recommendations[i].PlanID, generated.Recommendations[i].PlanID)
		assert.InDelta(t, selected.Recommendations[i].TotalScore, generated.Recommendations[i].TotalScore, 1e-9)
	}

	var notifyIn srs.Input
	variables(t, map[string]interface{}{
		"recipientEmail":  "jane@example.com",
		"employeeName":    "Jane",
		"recommendations": selected.Recommendations,
	}, &notifyIn)
	notified, err := p.notify.Execute(ctx, &notifyIn)
	require.NoError(t, err)
	assert.Equal(t, srs.StatusSent, notified.Status)
	assert.Equal(t, []string{srs.ChannelEmail}, notified.Channels)
	require.Len(t, p.email.sent, 1)
	assert.Contains(t, *p.email.sent[0].Message.Body.Text.Data, selected.Recommendations[0].PlanName)
}

func TestRecommendationProcess_InvalidProfileStopsEarly(t *testing.T) {
	p := newPipeline(t, catalog.NewMemoryRepository(testCatalog()))

	out, err := p.validate.Execute(context.Background(), &vp.Input{
		Profile: json.RawMessage(`{"age": 12, "zipCode": "1000", "state": "ny"}`),
	})

	require.NoError(t, err)
	assert.False(t, out.IsValid)
	assert.Nil(t, out.Profile)
	assert.NotEmpty(t, out.ValidationErrors)
}

func TestRecommendationProcess_UncoveredLocation(t *testing.T) {
	p := newPipeline(t, catalog.NewMemoryRepository(testCatalog()))

	_, err := p.fetch.Execute(context.Background(), &fep.Input{State: "WY", ZipCode: "82001"})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNoEligiblePlans, errors.FromError(err).Code)
}

func TestRecommendationProcess_CachedCatalog(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	log := logger.NewTestLogger(t)
	cached := catalog.NewCachedRepository(catalog.NewMemoryRepository(testCatalog()), rdb, time.Minute, log)
	p := newPipeline(t, cached)

	var profile models.Profile
	require.NoError(t, json.Unmarshal([]byte(employeeProfile), &profile))

	first, err := p.generate.Execute(context.Background(), &gr.Input{Profile: &profile})
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys(), "catalog lookup should populate the cache")

	second, err := p.generate.Execute(context.Background(), &gr.Input{Profile: &profile})
	require.NoError(t, err)

	require.Equal(t, first.RecommendationCount, second.RecommendationCount)
	for i := range first.Recommendations {
		assert.Equal(t, first.Recommendations[i].PlanID, second.Recommendations[i].PlanID)
	}
	assert.NotEqual(t, first.RecommendationID, second.RecommendationID)
}
