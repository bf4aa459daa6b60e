package errors

const (
	HttpInternalError        = "internal_error"
	HttpInvalidJsonError     = "invalid_json"
	HttpInvalidVersionError  = "invalid_version"
	HttpIndexNotFoundError   = "index_not_found"
	HttpModelDefinitionError = "model_definition_invalid"
	HttpInvalidPipelineError = "invalid_pipeline"
	HttpSchemaMismatchError  = "schema_mismatch"
	HttpDecodeFailureError   = "decode_failure"
	HttpEngineError          = "engine_unavailable"
	HttpPipelineNotFound     = "pipeline_not_found"
	HttpSnapshotNotFound     = "snapshot_not_found"
	HttpSessionNotFound      = "page_session_not_found"
	HttpSessionRejected      = "page_session_rejected"
)

// ErrorResponse is the error response body shared by all HTTP APIs.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}
