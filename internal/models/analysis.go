package models

// Health status values for analysis results and their components.
const (
	StatusHealthy = "healthy"
	StatusWarning = "warning"
	StatusError   = "error"
)

// AnalysisResult is the output of one health analysis pass over a snapshot.
// Status is "warning" exactly when Warnings is non-empty, and "error" only
// when the input document was structurally invalid.
type AnalysisResult struct {
	Status     string                     `json:"status"`
	Warnings   []string                   `json:"warnings"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth is the per-component sub-result (cpu, memory, storage, gpu).
// Metrics values are numbers, or nil when a present value failed coercion.
type ComponentHealth struct {
	Status   string         `json:"status"`
	Warnings []string       `json:"warnings"`
	Metrics  map[string]any `json:"metrics"`
}

// HistoryRecord pairs a snapshot with its analysis for the history store.
// The store treats both payloads as opaque.
type HistoryRecord struct {
	Timestamp string          `json:"timestamp"`
	Snapshot  *Snapshot       `json:"snapshot"`
	Analysis  *AnalysisResult `json:"analysis"`
}
