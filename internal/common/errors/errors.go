// Package errors provides standardized error handling for the analytics pipeline
// and its BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidQuestion ErrorCode = "INVALID_QUESTION"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"

	ErrCodeLLMRequestFailed   ErrorCode = "LLM_REQUEST_FAILED"
	ErrCodeLLMTimeout         ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMInvalidResponse ErrorCode = "LLM_INVALID_RESPONSE"

	ErrCodeAnalysisParseFailed         ErrorCode = "ANALYSIS_PARSE_FAILED"
	ErrCodeAggregationFailed           ErrorCode = "AGGREGATION_FAILED"
	ErrCodeAggregationValidationFailed ErrorCode = "AGGREGATION_VALIDATION_FAILED"
	ErrCodeAnswerCompositionFailed     ErrorCode = "ANSWER_COMPOSITION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeInteractionLogFailed     ErrorCode = "INTERACTION_LOG_FAILED"

	ErrCodeMetadataLoadFailed ErrorCode = "METADATA_LOAD_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the error the StandardError was built from, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error metadata and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// wrapError builds a StandardError whose details and cause come from err.
func wrapError(code ErrorCode, message string, err error, retryable bool) *StandardError {
	e := newError(code, message, errDetails(err), retryable)
	e.cause = err
	return e
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewInvalidQuestionError is returned when the inbound question is empty or malformed.
func NewInvalidQuestionError(details string) *StandardError {
	return newError(ErrCodeInvalidQuestion, "Question is missing or invalid", details, false)
}

// NewInvalidInputError is returned when job variables cannot be decoded.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Job input is invalid", details, false)
}

func NewLLMRequestFailedError(stage string, err error) *StandardError {
	return wrapError(ErrCodeLLMRequestFailed, "LLM request failed", err, true).
		WithMetadata("stage", stage)
}

func NewLLMTimeoutError(stage string, err error) *StandardError {
	return wrapError(ErrCodeLLMTimeout, "LLM request timed out", err, true).
		WithMetadata("stage", stage)
}

func NewLLMInvalidResponseError(stage string, err error) *StandardError {
	return wrapError(ErrCodeLLMInvalidResponse, "LLM returned an unusable response", err, true).
		WithMetadata("stage", stage)
}

func NewAnalysisParseFailedError(err error) *StandardError {
	return wrapError(ErrCodeAnalysisParseFailed, "Could not parse question analysis", err, false)
}

func NewAggregationFailedError(err error) *StandardError {
	return wrapError(ErrCodeAggregationFailed, "Aggregation failed", err, true)
}

func NewAggregationValidationFailedError(err error) *StandardError {
	return wrapError(ErrCodeAggregationValidationFailed, "Aggregation does not match any known result shape", err, true)
}

func NewAnswerCompositionFailedError(err error) *StandardError {
	return wrapError(ErrCodeAnswerCompositionFailed, "Answer composition failed", err, true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return wrapError(ErrCodeDatabaseConnectionFailed, "Database connection failed", err, true)
}

// NewQueryExecutionFailedError creates a retryable query error.
func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	return wrapError(ErrCodeQueryExecutionFailed, "Query execution failed", err, true).
		WithMetadata("query", queryName)
}

func NewQueryTimeoutError(queryName string, err error) *StandardError {
	return wrapError(ErrCodeQueryTimeout, "Query timed out", err, true).
		WithMetadata("query", queryName)
}

func NewInteractionLogFailedError(err error) *StandardError {
	return wrapError(ErrCodeInteractionLogFailed, "Interaction log write failed", err, false)
}

func NewMetadataLoadFailedError(path string, err error) *StandardError {
	return wrapError(ErrCodeMetadataLoadFailed, "Field metadata could not be loaded", err, false).
		WithMetadata("path", path)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeLLMRequestFailed:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeLLMInvalidResponse,
		ErrCodeAggregationFailed,
		ErrCodeAggregationValidationFailed,
		ErrCodeAnswerCompositionFailed:
		return 2

	case ErrCodeLLMTimeout:
		return 1

	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "LLM"),
		strings.Contains(codeStr, "ANALYSIS"),
		strings.Contains(codeStr, "ANSWER"):
		return "AI"
	case strings.Contains(codeStr, "AGGREGATION"):
		return "AGGREGATION"
	case strings.Contains(codeStr, "DATABASE"),
		strings.Contains(codeStr, "QUERY"),
		strings.Contains(codeStr, "INTERACTION_LOG"):
		return "DATABASE"
	case strings.Contains(codeStr, "INVALID"), strings.Contains(codeStr, "METADATA"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
