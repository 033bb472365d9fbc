// internal/workers/dataset/generate-dataset/models.go
package generatedataset

// Input fields are optional; missing values fall back to the configured
// generator defaults.
type Input struct {
	Records *int   `json:"records"`
	Seed    *int64 `json:"seed"`
}

type Output struct {
	RunID             string         `json:"runId"`
	Rows              int            `json:"rows"`
	AIApprovalRate    float64        `json:"aiApprovalRate"`
	FinalApprovalRate float64        `json:"finalApprovalRate"`
	AppealsFiled      int            `json:"appealsFiled"`
	BiasFlags         map[string]int `json:"biasFlags"`
	OutputPath        string         `json:"outputPath"`
	Digest            string         `json:"digest"`

	// Set when the CSV was committed but a sink, the run registry or a
	// notification failed. The job still completes.
	PublishError     string `json:"publishError,omitempty"`
	PublishErrorCode string `json:"publishErrorCode,omitempty"`
}
