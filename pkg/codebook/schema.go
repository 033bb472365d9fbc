// pkg/codebook/schema.go
package codebook

// Column types, as JSON Schema primitive names.
const (
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeString  = "string"
)

// Codebook is the data dictionary for the exported table. Column order is
// the export order.
type Codebook struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Columns     []Column `json:"columns"`
}

type Column struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Group       string   `json:"group"`
	Stage       string   `json:"stage"`
	Description string   `json:"description"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *float64 `json:"minimum,omitempty"`
	Maximum     *float64 `json:"maximum,omitempty"`
}
