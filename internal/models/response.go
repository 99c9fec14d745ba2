// Package models holds the response envelopes of the status API.
package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// FamilyFailure reports one failed record family of a cycle.
type FamilyFailure struct {
	Family  string `json:"family"`
	Message string `json:"message"`
}

// StatusResponse summarizes the agent and its latest collection cycle.
type StatusResponse struct {
	Leader         bool            `json:"leader"`
	Cycles         uint64          `json:"cycles"`
	CollectedAt    string          `json:"collected_at,omitempty"`
	DurationMS     float64         `json:"duration_ms,omitempty"`
	Servers        int             `json:"servers"`
	Tables         int             `json:"tables"`
	Replicas       int             `json:"replicas"`
	MetricsEmitted int             `json:"metrics_emitted"`
	SkippedTables  int             `json:"skipped_tables,omitempty"`
	Failures       []FamilyFailure `json:"failures,omitempty"`
}

// SnapshotResponse wraps one record family of the latest cycle.
type SnapshotResponse struct {
	CollectedAt string      `json:"collected_at"`
	Count       int         `json:"count"`
	Records     interface{} `json:"records"`
}

// CollectResponse represents the outcome of a manually triggered cycle.
type CollectResponse struct {
	Status   string          `json:"status"`
	Duration string          `json:"duration"`
	Servers  int             `json:"servers"`
	Tables   int             `json:"tables"`
	Replicas int             `json:"replicas"`
	Failures []FamilyFailure `json:"failures,omitempty"`
}
