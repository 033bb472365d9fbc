// pkg/codebook/codebook_test.go
package codebook

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsd-dataset/internal/models"
)

var exportOrder = []string{
	"id", "country_of_origin", "gender", "age", "education_level", "language_proficiency",
	"family_size", "prior_camp_years", "persecution_ground", "persecution_type",
	"nexus_established", "state_protection_score", "internal_relocation_possible",
	"reported_trauma", "credibility_score", "risk_score", "risk_score_uncapped",
	"integration_score", "AI_decision", "human_reviewed", "human_override",
	"final_decision", "processing_time_days", "appealed", "appeal_outcome", "bias_flag",
}

func TestDefault_ColumnOrder(t *testing.T) {
	cb := Default()
	require.NoError(t, cb.Validate())
	assert.Equal(t, exportOrder, cb.Names())
}

func TestDefault_MatchesRecordFields(t *testing.T) {
	rt := reflect.TypeOf(models.Record{})
	var tags []string
	for i := 0; i < rt.NumField(); i++ {
		tags = append(tags, strings.Split(rt.Field(i).Tag.Get("json"), ",")[0])
	}
	assert.Equal(t, Default().Names(), tags)
}

func TestColumnLookup(t *testing.T) {
	cb := Default()

	col, ok := cb.Column("appeal_outcome")
	require.True(t, ok)
	assert.Equal(t, []string{"overturned", "upheld", "N/A"}, col.Enum)

	_, ok = cb.Column("missing")
	assert.False(t, ok)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		columns []Column
		errMsg  string
	}{
		{"empty", nil, "no columns"},
		{"missing name", []Column{{Type: TypeString}}, "missing required field"},
		{"duplicate", []Column{{Name: "a", Type: TypeString}, {Name: "a", Type: TypeString}}, "duplicate column"},
		{"unknown type", []Column{{Name: "a", Type: "date"}}, "unknown type"},
		{"enum on number", []Column{{Name: "a", Type: TypeNumber, Enum: []string{"x"}}}, "enum is only allowed"},
		{"inverted range", []Column{{Name: "a", Type: TypeNumber, Minimum: bound(2), Maximum: bound(1)}}, "exceeds maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Codebook{Columns: tt.columns}).Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestCheckHeader(t *testing.T) {
	cb := Default()
	assert.NoError(t, cb.CheckHeader(exportOrder))

	swapped := append([]string(nil), exportOrder...)
	swapped[1], swapped[2] = swapped[2], swapped[1]
	err := cb.CheckHeader(swapped)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column 2")

	assert.Error(t, cb.CheckHeader(exportOrder[:10]))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "codebook.json")
	cb := Default()
	cb.Touch()

	require.NoError(t, Save(cb, path))
	loaded, err := LoadCodebook(path)
	require.NoError(t, err)

	assert.Equal(t, cb.Names(), loaded.Names())
	assert.Equal(t, cb.LastUpdated, loaded.LastUpdated)
	age, _ := loaded.Column("age")
	require.NotNil(t, age.Maximum)
	assert.Equal(t, 64.0, *age.Maximum)
}

func TestLoadCodebook_Errors(t *testing.T) {
	_, err := LoadCodebook(filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, os.IsNotExist(err))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadCodebook(bad)
	assert.Error(t, err)
}

func TestJSONSchema(t *testing.T) {
	schema := Default().JSONSchema()

	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, exportOrder, schema["required"])

	props := schema["properties"].(map[string]interface{})
	gender := props["gender"].(map[string]interface{})
	assert.Equal(t, []string{"Male", "Female", "Non-binary"}, gender["enum"])

	cred := props["credibility_score"].(map[string]interface{})
	assert.Equal(t, 0.0, cred["minimum"])
	assert.Equal(t, 1.0, cred["maximum"])

	_, hasMin := props["risk_score_uncapped"].(map[string]interface{})["minimum"]
	assert.False(t, hasMin)
}
