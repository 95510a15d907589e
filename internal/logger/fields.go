package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldVideoID is the external video identifier under analysis
	FieldVideoID = "video_id"

	// FieldAnalysisID is the analysis record ID
	FieldAnalysisID = "analysis_id"

	// FieldUserID is the requester identity (empty for anonymous)
	FieldUserID = "user_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldModel is the AI model used for a call
	FieldModel = "model"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldAttempt is the retry attempt number
	FieldAttempt = "attempt"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldSize is the data size in bytes
	FieldSize = "size"
)
