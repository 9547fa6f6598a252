package models

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	ErrorCodeInvalidField    ErrorCode = "INVALID_FIELD"
	ErrorCodeMissingField    ErrorCode = "MISSING_FIELD"
	ErrorCodeInvalidFormat   ErrorCode = "INVALID_FORMAT"
	ErrorCodeNotAvailable    ErrorCode = "SERVICE_NOT_AVAILABLE"
	ErrorCodeHoldNotGranted  ErrorCode = "HOLD_NOT_GRANTED"
	ErrorCodeHoldNotFound    ErrorCode = "HOLD_NOT_FOUND"
	ErrorCodeServiceNotFound ErrorCode = "SERVICE_NOT_FOUND"
	ErrorCodeProviderLocked  ErrorCode = "PROVIDER_LOCKED"
	ErrorCodeInternalError   ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidationError ErrorCode = "VALIDATION_ERROR"
	ErrorCodeCatalogError    ErrorCode = "CATALOG_ERROR"
)

const (
	ProblemTypeValidationError = "validation-error"
	ProblemTypeBusinessError   = "business-logic-error"
	ProblemTypeNotFound        = "not-found"
	ProblemTypeInternalError   = "internal-error"
)

// API Request Models

// RegisterServiceRequest registers a service with the availability registry.
type RegisterServiceRequest struct {
	ServiceID             string `json:"service_id" binding:"required"`
	ProviderID            string `json:"provider_id" binding:"required"`
	IsAvailable           *bool  `json:"is_available,omitempty"`
	HasCalendar           bool   `json:"has_calendar"`
	MaxConcurrentBookings int    `json:"max_concurrent_bookings" binding:"omitempty,min=1"`
}

// CreateHoldRequest asks for a soft hold on a service.
type CreateHoldRequest struct {
	ServiceID  string `json:"service_id" binding:"required"`
	ProviderID string `json:"provider_id" binding:"required"`
	HolderID   string `json:"holder_id" binding:"required"`
}

// LockProviderRequest freezes all services of one provider.
type LockProviderRequest struct {
	LockedBy        string `json:"locked_by" binding:"required"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1"`
}

// QuoteRequest asks the pricing engine for a quote.
type QuoteRequest struct {
	Variant ProductVariant `json:"variant" binding:"required"`
	Params  PricingParams  `json:"params"`
}

// API Response Models

// HoldResponse is returned after a soft hold is granted.
type HoldResponse struct {
	HoldID    string    `json:"hold_id"`
	ServiceID string    `json:"service_id"`
	HolderID  string    `json:"holder_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

// ReleaseResponse reports whether a release actually freed a hold.
type ReleaseResponse struct {
	HoldID   string `json:"hold_id"`
	Released bool   `json:"released"`
}

// ServiceAvailabilityResponse reports the bookability of one service.
type ServiceAvailabilityResponse struct {
	ServiceID       string     `json:"service_id"`
	Available       bool       `json:"available"`
	CurrentBookings int        `json:"current_bookings"`
	MaxConcurrent   int        `json:"max_concurrent"`
	LockUntil       *time.Time `json:"lock_until,omitempty"`
}

// SearchResponse wraps a ranked result list.
type SearchResponse struct {
	Query   string    `json:"query"`
	Count   int       `json:"count"`
	Results []Service `json:"results"`
}

// Enhanced Error Handling Models

// ValidationError represents validation errors with detailed field information
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Value   any    `json:"value,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// BusinessError represents business logic errors
type BusinessError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFoundError represents resource not found errors
type NotFoundError struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

type ProblemDetails struct {
	Type     string      `json:"type"`
	Title    string      `json:"title"`
	Status   int         `json:"status"`
	Detail   string      `json:"detail,omitempty"`
	Instance string      `json:"instance,omitempty"`
	Field    string      `json:"field,omitempty"`
	Code     string      `json:"code,omitempty"`
	Errors   interface{} `json:"errors,omitempty"`
}

func NewProblemDetails(status int, title, detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   getProblemType(status),
		Title:  title,
		Status: status,
		Detail: detail,
	}
}

// NewValidationProblem creates a validation error problem
func NewValidationProblem(field, message string, code ErrorCode) *ProblemDetails {
	return &ProblemDetails{
		Type:   ProblemTypeValidationError,
		Title:  "Validation Failed",
		Status: 400,
		Detail: message,
		Field:  field,
		Code:   string(code),
	}
}

// NewMultiValidationProblem creates a multi-field validation error problem
func NewMultiValidationProblem(violations []ValidationError) *ProblemDetails {
	return &ProblemDetails{
		Type:   ProblemTypeValidationError,
		Title:  "Validation Failed",
		Status: 400,
		Detail: "Multiple validation errors occurred",
		Errors: violations,
	}
}

// NewBusinessLogicProblem creates a business logic error problem
func NewBusinessLogicProblem(status int, title, detail string, code ErrorCode) *ProblemDetails {
	return &ProblemDetails{
		Type:   ProblemTypeBusinessError,
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   string(code),
	}
}

// NewNotFoundProblem creates a not found error problem
func NewNotFoundProblem(resource string) *ProblemDetails {
	return &ProblemDetails{
		Type:   ProblemTypeNotFound,
		Title:  "Resource Not Found",
		Status: 404,
		Detail: resource + " not found",
	}
}

// Helper function to get problem type URI based on status code
func getProblemType(status int) string {
	switch status {
	case 400:
		return ProblemTypeValidationError
	case 404:
		return ProblemTypeNotFound
	case 409, 422:
		return ProblemTypeBusinessError
	default:
		return ProblemTypeInternalError
	}
}
