// Package errors provides standardized error handling for the franchise service
// and its BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeFranchiseNotFound ErrorCode = "FRANCHISE_NOT_FOUND"
	ErrCodeBranchNotFound    ErrorCode = "BRANCH_NOT_FOUND"
	ErrCodeProductNotFound   ErrorCode = "PRODUCT_NOT_FOUND"

	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	ErrCodeStoreFailure ErrorCode = "STORE_FAILURE"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// Kind is the failure class a caller reacts to.
type Kind int

const (
	KindStoreFailure Kind = iota
	KindNotFound
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindInvalidArgument:
		return "InvalidArgument"
	default:
		return "StoreFailure"
	}
}

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

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Kind classifies the error by its code.
func (e *StandardError) Kind() Kind {
	switch e.Code {
	case ErrCodeFranchiseNotFound, ErrCodeBranchNotFound, ErrCodeProductNotFound:
		return KindNotFound
	case ErrCodeInvalidArgument:
		return KindInvalidArgument
	default:
		return KindStoreFailure
	}
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

// NewFranchiseNotFoundError creates a non-retryable not-found error for a franchise id.
func NewFranchiseNotFoundError(franchiseID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeFranchiseNotFound,
		Message:   "Franchise not found",
		Details:   fmt.Sprintf("franchiseId: %s", franchiseID),
		Retryable: false,
		Metadata:  map[string]interface{}{"franchiseId": franchiseID},
		Timestamp: time.Now().UTC(),
	}
}

// NewBranchNotFoundError creates a non-retryable not-found error for a branch of a franchise.
func NewBranchNotFoundError(franchiseID, branchID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBranchNotFound,
		Message:   "Branch not found",
		Details:   fmt.Sprintf("franchiseId: %s, branchId: %s", franchiseID, branchID),
		Retryable: false,
		Metadata:  map[string]interface{}{"franchiseId": franchiseID, "branchId": branchID},
		Timestamp: time.Now().UTC(),
	}
}

// NewProductNotFoundError creates a non-retryable not-found error for a product of a branch.
func NewProductNotFoundError(franchiseID, branchID, productID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProductNotFound,
		Message:   "Product not found",
		Details:   fmt.Sprintf("franchiseId: %s, branchId: %s, productId: %s", franchiseID, branchID, productID),
		Retryable: false,
		Metadata: map[string]interface{}{
			"franchiseId": franchiseID,
			"branchId":    branchID,
			"productId":   productID,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidArgumentError creates a non-retryable validation error.
// field names the offending argument and value is echoed back in the metadata.
func NewInvalidArgumentError(field string, value interface{}, cause error) *StandardError {
	details := fmt.Sprintf("%s: %v", field, value)
	if cause != nil {
		details = fmt.Sprintf("%s (%s)", details, cause.Error())
	}
	return &StandardError{
		Code:      ErrCodeInvalidArgument,
		Message:   "Invalid argument",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{field: value},
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewStoreFailureError wraps a persistence failure. Store failures are retryable from a workflow's point of view.
func NewStoreFailureError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreFailure,
		Message:   "Franchise store failure",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError normalizes an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Classification
// ==========================

// KindOf classifies any error. Errors that are not a StandardError are
// failures surfaced by the store and classify as KindStoreFailure.
func KindOf(err error) Kind {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Kind()
	}
	return KindStoreFailure
}

// AsStandardError returns the StandardError in err's chain, if any.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize ensures we always have a StandardError. Foreign errors become STORE_FAILURE.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewStoreFailureError("unknown", err)
}

// HTTPStatus maps an error to the status code the REST layer answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeFranchiseNotFound: "FRANCHISE_NOT_FOUND",
	ErrCodeBranchNotFound:    "BRANCH_NOT_FOUND",
	ErrCodeProductNotFound:   "PRODUCT_NOT_FOUND",
	ErrCodeInvalidArgument:   "INVALID_ARGUMENT",
	ErrCodeStoreFailure:      "STORE_FAILURE",
	ErrCodeInternal:          "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreFailure:
		return 3
	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

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
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasSuffix(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "STORE"):
		return "STORE"
	default:
		return "OTHER"
	}
}
