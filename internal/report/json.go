package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/banshee-data/activity.report/internal/analysis"
	"github.com/banshee-data/activity.report/internal/version"
)

// AnalysisType labels the JSON summary.
const AnalysisType = "comprehensive_accelerometer_analysis"

// Info identifies a generated report.
type Info struct {
	Participant  string       `json:"participant_id"`
	GeneratedAt  time.Time    `json:"generated_at"`
	Version      version.Info `json:"version"`
	AnalysisType string       `json:"analysis_type"`
}

// Document is the JSON summary: report info followed by the full result.
type Document struct {
	Info Info `json:"report_info"`
	*analysis.Result
}

// NewDocument wraps a result for serialisation.
func NewDocument(r *analysis.Result, generatedAt time.Time) Document {
	return Document{
		Info: Info{
			Participant:  r.Participant,
			GeneratedAt:  generatedAt,
			Version:      version.Current(),
			AnalysisType: AnalysisType,
		},
		Result: r,
	}
}

// WriteJSON writes the indented JSON summary.
func WriteJSON(w io.Writer, r *analysis.Result, generatedAt time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(r, generatedAt))
}
