// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testActivity(id string) Activity {
	return Activity{
		ID:                   id,
		DisplayName:          "Score Plans",
		Description:          "Scores each eligible plan against the profile",
		Category:             "recommendation",
		Version:              "1.0.0",
		TaskType:             id,
		ImplementationStatus: StatusCompleted,
		ErrorCodes:           []string{"INVALID_INPUT"},
		Timeout:              "10s",
	}
}

func TestAddFindAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "activity-registry.json")

	reg := New()
	require.NoError(t, reg.Add(testActivity("score-plans")))
	assert.Error(t, reg.Add(testActivity("score-plans")))
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)

	a, ok := loaded.Find("score-plans")
	require.True(t, ok)
	assert.Equal(t, "10s", a.Timeout)

	_, ok = loaded.Find("unknown")
	assert.False(t, ok)
}

func TestUpdate(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Add(testActivity("score-plans")))

	tests := []struct {
		field   string
		value   string
		wantErr bool
	}{
		{"status", StatusVerified, false},
		{"status", "done", true},
		{"timeout", "45s", false},
		{"timeout", "soon", true},
		{"retries", "3", false},
		{"retries", "-1", true},
		{"owner", "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.field+"="+tt.value, func(t *testing.T) {
			err := reg.Update("score-plans", tt.field, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	a, _ := reg.Find("score-plans")
	assert.Equal(t, StatusVerified, a.ImplementationStatus)
	assert.Equal(t, "45s", a.Timeout)
	assert.Equal(t, 3, a.Retries)

	assert.Error(t, reg.Update("missing", "status", StatusPlanned))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ActivityRegistry)
		wantErr string
	}{
		{"valid", func(*ActivityRegistry) {}, ""},
		{"empty", func(r *ActivityRegistry) { r.Activities = nil }, "no activities"},
		{"duplicate id", func(r *ActivityRegistry) { r.Activities = append(r.Activities, r.Activities[0]) }, "duplicate activity ID"},
		{"duplicate task type", func(r *ActivityRegistry) {
			dup := r.Activities[0]
			dup.ID = "other"
			r.Activities = append(r.Activities, dup)
		}, "duplicate task type"},
		{"missing category", func(r *ActivityRegistry) { r.Activities[0].Category = "" }, "Category"},
		{"bad timeout", func(r *ActivityRegistry) { r.Activities[0].Timeout = "ten" }, "invalid timeout"},
		{"bad status", func(r *ActivityRegistry) { r.Activities[0].ImplementationStatus = "done" }, "invalid status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := New()
			require.NoError(t, reg.Add(testActivity("score-plans")))
			tt.mutate(reg)

			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMissingTaskTypes(t *testing.T) {
	reg := New()
	require.NoError(t, reg.Add(testActivity("score-plans")))

	missing := reg.MissingTaskTypes([]string{"validate-profile", "score-plans", "select-recommendations"})

	assert.Equal(t, []string{"validate-profile", "select-recommendations"}, missing)
}

func TestShippedRegistryIsValid(t *testing.T) {
	path := filepath.Join("..", "..", "configs", "activity-registry.json")
	if _, err := os.Stat(path); err != nil {
		t.Skip("registry file not present")
	}

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.NoError(t, reg.Validate())
	assert.Empty(t, reg.MissingTaskTypes([]string{
		"validate-profile",
		"fetch-eligible-plans",
		"score-plans",
		"select-recommendations",
		"generate-recommendations",
		"send-recommendation-summary",
	}))
}
