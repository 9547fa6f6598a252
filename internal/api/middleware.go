package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/TahlesAi/tahles-sub000/internal/models"
)

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// CORSMiddleware handles CORS headers for the browser-facing UI layer.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ResponseHelpers provides methods for REST-native responses
type ResponseHelpers struct{}

var Response = &ResponseHelpers{}

// Success sends the resource directly (no wrapper)
func (h *ResponseHelpers) Success(c *gin.Context, resource interface{}) {
	c.JSON(200, resource)
}

// Created sends a 201 created response with the created resource
func (h *ResponseHelpers) Created(c *gin.Context, resource interface{}) {
	c.JSON(201, resource)
}

// NoContent sends a 204 no content response
func (h *ResponseHelpers) NoContent(c *gin.Context) {
	c.Status(204)
}

func (h *ResponseHelpers) ValidationError(c *gin.Context, field, message string) {
	problem := models.NewValidationProblem(field, message, models.ErrorCodeInvalidField)
	h.setRequestIDHeader(c)
	c.JSON(400, problem)
}

// BusinessError sends a business logic error (409 or 422)
func (h *ResponseHelpers) BusinessError(c *gin.Context, status int, title, detail string, code models.ErrorCode) {
	problem := models.NewBusinessLogicProblem(status, title, detail, code)
	h.setRequestIDHeader(c)
	c.JSON(status, problem)
}

// NotFound sends a 404 not found response
func (h *ResponseHelpers) NotFound(c *gin.Context, resource string) {
	problem := models.NewNotFoundProblem(resource)
	h.setRequestIDHeader(c)
	c.JSON(404, problem)
}

// InternalError sends a 500 internal server error response
func (h *ResponseHelpers) InternalError(c *gin.Context, detail string) {
	problem := models.NewProblemDetails(500, "Internal Server Error", "An unexpected error occurred")
	h.setRequestIDHeader(c)

	// Log the error for debugging but don't expose internals
	log.Error().
		Str("request_id", getRequestID(c)).
		Str("detail", detail).
		Msg("Internal server error")

	c.JSON(500, problem)
}

// BindError translates a gin binding failure into a problem response,
// expanding validator violations field by field.
func (h *ResponseHelpers) BindError(c *gin.Context, err error) {
	h.setRequestIDHeader(c)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		violations := make([]models.ValidationError, 0, len(validationErrors))
		for _, validationError := range validationErrors {
			violations = append(violations, models.ValidationError{
				Field:   strings.ToLower(validationError.Field()),
				Message: validationMessage(validationError),
				Code:    validationError.Tag(),
			})
		}
		c.JSON(400, models.NewMultiValidationProblem(violations))
		return
	}

	c.JSON(400, models.NewProblemDetails(400, "Bad Request", err.Error()))
}

func (h *ResponseHelpers) setRequestIDHeader(c *gin.Context) {
	if requestID := getRequestID(c); requestID != "" {
		c.Header("X-Request-ID", requestID)
	}
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		return requestID.(string)
	}
	return ""
}

func validationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is below the allowed minimum"
	case "max":
		return "Value is above the allowed maximum"
	default:
		return "Invalid value"
	}
}
