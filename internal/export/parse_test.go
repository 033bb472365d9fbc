// internal/export/parse_test.go
package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecords_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		delimiter rune
	}{
		{name: "comma", delimiter: ','},
		{name: "semicolon", delimiter: ';'},
		{name: "tab", delimiter: '\t'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := generated(t, 150, 42)
			path := filepath.Join(t.TempDir(), "rsd.csv")
			_, err := WriteFile(path, records, Options{Delimiter: tt.delimiter})
			require.NoError(t, err)

			header, rows, err := ReadFile(path, tt.delimiter)
			require.NoError(t, err)

			parsed, err := ParseRecords(header, rows)
			require.NoError(t, err)
			assert.Equal(t, records, parsed)
		})
	}
}

func TestParseRecords_ColumnOrderIndependent(t *testing.T) {
	header := []string{"bias_flag", "id", "credibility_score", "appealed"}
	rows := [][]string{{"none", "3", "0.25", "True"}}

	parsed, err := ParseRecords(header, rows)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, 3, parsed[0].ID)
	assert.Equal(t, 0.25, parsed[0].CredibilityScore)
	assert.True(t, parsed[0].Appealed)
	assert.Equal(t, "none", string(parsed[0].BiasFlag))
}

func TestParseRecords_Errors(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{name: "unknown column", header: []string{"id", "shoe_size"}, rows: nil},
		{name: "short row", header: []string{"id", "age"}, rows: [][]string{{"1"}}},
		{name: "bad integer", header: []string{"id"}, rows: [][]string{{"one"}}},
		{name: "bad float", header: []string{"risk_score"}, rows: [][]string{{"high"}}},
		{name: "lowercase boolean", header: []string{"appealed"}, rows: [][]string{{"true"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecords(tt.header, tt.rows)
			assert.Error(t, err)
		})
	}
}
