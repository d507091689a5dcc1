package validation

import (
	"encoding/json"
	"testing"

	"ichra-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProfileJSON = `{
	"age": 35,
	"zipCode": "10001",
	"state": "NY",
	"coverageType": "individual",
	"ichraAllowance": 500,
	"medicalNeeds": "routine",
	"riskTolerance": "moderate",
	"priorities": {"cost": 3, "coverage": 3, "network": 3, "flexibility": 3}
}`

func decode(t *testing.T, raw string) (map[string]interface{}, *models.Profile) {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	var p models.Profile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return doc, &p
}

func codes(r *ValidationResult) map[string]string {
	out := map[string]string{}
	for _, e := range r.Errors {
		out[e.Field] = e.Code
	}
	return out
}

// ==========================
// JSON Schema
// ==========================

func TestValidateDocument_ValidProfile(t *testing.T) {
	doc, _ := decode(t, validProfileJSON)

	result, err := ValidateDocument(ProfileSchema(), doc)

	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateDocument_Violations(t *testing.T) {
	doc, _ := decode(t, `{
		"age": 17,
		"zipCode": "1000A",
		"state": "NY",
		"coverageType": "extended",
		"ichraAllowance": -1,
		"medicalNeeds": "routine",
		"priorities": {"cost": 6, "coverage": 3, "network": 3}
	}`)

	result, err := ValidateDocument(ProfileSchema(), doc)

	require.NoError(t, err)
	assert.False(t, result.Valid)

	got := codes(result)
	assert.Equal(t, "MIN_VALUE_VIOLATION", got["age"])
	assert.Equal(t, "PATTERN_MISMATCH", got["zipCode"])
	assert.Equal(t, "INVALID_ENUM_VALUE", got["coverageType"])
	assert.Equal(t, "MIN_VALUE_VIOLATION", got["ichraAllowance"])
	assert.Equal(t, "REQUIRED_FIELD_MISSING", got["riskTolerance"])
	assert.Equal(t, "MAX_VALUE_VIOLATION", got["priorities.cost"])
	assert.Equal(t, "REQUIRED_FIELD_MISSING", got["priorities.flexibility"])
	assert.NotEmpty(t, result.Summary())
}

func TestValidateDocument_WrongType(t *testing.T) {
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"age": "thirty"}`), &doc))

	result, err := ValidateDocument(ProfileSchema(), doc)

	require.NoError(t, err)
	assert.Equal(t, "INVALID_TYPE", codes(result)["age"])
}

func TestValidateDocument_BadSchema(t *testing.T) {
	_, err := ValidateDocument([]byte(`{"type": 12}`), map[string]interface{}{})
	assert.Error(t, err)
}

// ==========================
// Struct Rules
// ==========================

func TestStructValidator_ValidProfile(t *testing.T) {
	_, profile := decode(t, validProfileJSON)

	result, err := NewStructValidator().Struct(*profile)

	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestStructValidator_FieldErrorsUseJSONNames(t *testing.T) {
	_, profile := decode(t, validProfileJSON)
	profile.Age = 101
	profile.State = "ny"
	profile.Priorities.Network = 0

	result, err := NewStructValidator().Struct(*profile)

	require.NoError(t, err)
	got := codes(result)
	assert.Equal(t, "MAX", got["age"])
	assert.Equal(t, "UPPERCASE", got["state"])
	assert.Equal(t, "MIN", got["priorities.network"])
}

func TestStructValidator_DependentRules(t *testing.T) {
	_, profile := decode(t, validProfileJSON)
	profile.DependentCount = 1
	profile.DependentAges = []int{4, 7}

	result, err := NewStructValidator().Struct(*profile)

	require.NoError(t, err)
	got := codes(result)
	assert.Equal(t, "INDIVIDUAL_NO_DEPENDENTS", got["dependentCount"])
	assert.Equal(t, "DEPENDENT_AGES_COUNT", got["dependentAges"])

	profile.CoverageType = models.CoverageFamily
	profile.DependentCount = 2
	result, err = NewStructValidator().Struct(*profile)
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestStructValidator_NonStruct(t *testing.T) {
	_, err := NewStructValidator().Struct("not a struct")
	assert.Error(t, err)
}

// ==========================
// Combined
// ==========================

func TestValidateProfile(t *testing.T) {
	sv := NewStructValidator()

	doc, profile := decode(t, validProfileJSON)
	result, err := ValidateProfile(doc, profile, sv)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	profile.DependentCount = 2
	doc["dependentCount"] = 2.0
	result, err = ValidateProfile(doc, profile, sv)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "INDIVIDUAL_NO_DEPENDENTS", codes(result)["dependentCount"])
}

func TestValidateProfile_SchemaValidButUndecodable(t *testing.T) {
	doc, _ := decode(t, validProfileJSON)
	doc["age"] = 35.0

	result, err := ValidateProfile(doc, nil, NewStructValidator())

	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "INVALID_TYPE", codes(result)["profile"])
}
