package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Error codes. CONFIGURATION errors fail fast before any question runs,
// PROVIDER errors are retried with bounded backoff at the call site, and
// AGENT errors (including grounding violations) are never retried past the
// single immediate retry in the orchestrator.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeAgent         = "AGENT_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuestion       = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrInvalidDocument     = NewDomainError(ErrCodeValidation, "invalid document")
	ErrInvalidIngestStatus = NewDomainError(ErrCodeValidation, "invalid ingest job status")
)

// Not found errors
var (
	ErrDocumentNotFound  = NewDomainError(ErrCodeNotFound, "document not found")
	ErrIngestJobNotFound = NewDomainError(ErrCodeNotFound, "ingest job not found")
)

// Configuration errors
var (
	ErrDimensionMismatch = NewDomainError(ErrCodeConfiguration, "embedding dimensionality does not match the index")
	ErrMissingConfig     = NewDomainError(ErrCodeConfiguration, "missing required configuration")
)

// Agent errors. Grounding violations are here on purpose: retrying risks
// repeating the same hallucination.
var (
	ErrMalformedAgentReply = NewDomainError(ErrCodeAgent, "agent reply is neither a tool call nor a final answer")
	ErrMissingConfidence   = NewDomainError(ErrCodeAgent, "agent answer carries no confidence score")
	ErrInvalidConfidence   = NewDomainError(ErrCodeAgent, "agent confidence is not a usable number")
	ErrFabricatedCitation  = NewDomainError(ErrCodeAgent, "agent cited a chunk that was never retrieved")
)

// Provider errors
var (
	ErrRetrievalFailed = NewDomainError(ErrCodeProvider, "vector store query failed")
	ErrEmbeddingFailed = NewDomainError(ErrCodeProvider, "embedding provider call failed")
)
